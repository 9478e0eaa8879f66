// Package report renders aggregates as XLSX workbooks.
package report

import (
	"io"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/metal-lca/internal/model"
)

// SummarySheet is the name of the totals sheet.
const SummarySheet = "Summary"

// BuildWorkbook lays out an aggregate: one Summary sheet with totals and
// warnings, then one sheet per present stage in pipeline order listing its
// inputs and outputs.
func BuildWorkbook(project *model.Project, res *model.AggregateResult) (*xlsx.File, error) {
	f := xlsx.NewFile()

	summary, err := f.AddSheet(SummarySheet)
	if err != nil {
		return nil, eris.Wrap(err, "report: add summary sheet")
	}
	addStringRow(summary, "Project", project.Name)
	addStringRow(summary, "Project ID", project.ID)
	addStringRow(summary, "Metal", string(project.MetalType))
	addStringRow(summary, "Processing mode", string(project.ProcessingMode))
	addFloatRow(summary, "Functional unit (t)", project.FunctionalUnitMassTonnes)
	addFloatRow(summary, "Carbon footprint (kg CO2e)", res.CarbonFootprint)
	addFloatRow(summary, "Energy footprint (MJ)", res.EnergyFootprint)
	addStringRow(summary, "Warnings")
	for _, w := range res.Warnings {
		addStringRow(summary, "", w)
	}

	for _, st := range model.PipelineOrder {
		s, ok := res.Stages[st]
		if !ok {
			continue
		}
		sheet, err := f.AddSheet(string(st))
		if err != nil {
			return nil, eris.Wrapf(err, "report: add sheet %s", st)
		}
		addStringRow(sheet, "Kind", "Field", "Value")
		writeValues(sheet, "input", s.Inputs)
		writeValues(sheet, "output", s.Outputs)
	}
	return f, nil
}

// Write renders the aggregate workbook to w.
func Write(w io.Writer, project *model.Project, res *model.AggregateResult) error {
	f, err := BuildWorkbook(project, res)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "report: write workbook")
}

// Save renders the aggregate workbook to path.
func Save(path string, project *model.Project, res *model.AggregateResult) error {
	f, err := BuildWorkbook(project, res)
	if err != nil {
		return err
	}
	return eris.Wrapf(f.Save(path), "report: save %s", path)
}

func writeValues(sheet *xlsx.Sheet, kind string, values map[string]float64) {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		row := sheet.AddRow()
		row.AddCell().SetString(kind)
		row.AddCell().SetString(name)
		row.AddCell().SetFloat(values[name])
	}
}

func addStringRow(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}

func addFloatRow(sheet *xlsx.Sheet, label string, v float64) {
	row := sheet.AddRow()
	row.AddCell().SetString(label)
	row.AddCell().SetFloat(v)
}
