package plugin

import (
	"github.com/mobazha/finalized-watcher/structs"
)

type IReportPlugin interface {
	AcceptReport(report *structs.NumberReport)
}

type ReportPlugin struct {
	callback func(report *structs.NumberReport)
}

func (p ReportPlugin) AcceptReport(report *structs.NumberReport) {
	if p.callback != nil {
		p.callback(report)
	}
}

func NewReportPlugin(callback func(report *structs.NumberReport)) ReportPlugin {
	return ReportPlugin{
		callback: callback,
	}
}

type BlockNumPlugin struct {
	callback func(number uint64, consistent bool)
}

func (p BlockNumPlugin) AcceptReport(report *structs.NumberReport) {
	if p.callback != nil {
		p.callback(report.Number(), report.Consistent())
	}
}

func NewBlockNumPlugin(callback func(number uint64, consistent bool)) BlockNumPlugin {
	return BlockNumPlugin{
		callback: callback,
	}
}
