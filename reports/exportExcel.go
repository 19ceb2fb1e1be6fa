// Package reports renders dashboard data as xlsx workbooks.
package reports

import (
	"context"
	"fmt"
	"io"

	"github.com/H2RkawaNinja/dashboard/models"
	"github.com/H2RkawaNinja/dashboard/utils"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXlsx = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	timeLayout      = "2006-01-02 15:04:05"

	activitySheet      = "Aktivitäten"
	distributionsSheet = "Ausgaben"
	salesSheet         = "Verkäufe"
)

// ExcelRow is one data row of a sheet.
type ExcelRow interface {
	GetCellValues() []interface{}
}

// writeSheet puts headings into row 1 and each row below it.
func writeSheet[T ExcelRow](f *excelize.File, sheetName string, headings []string, rows []T) error {
	for i, h := range headings {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheetName, cell, h); err != nil {
			return err
		}
	}
	for r, row := range rows {
		for i, value := range row.GetCellValues() {
			cell, err := excelize.CoordinatesToCellName(i+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, value); err != nil {
				return err
			}
		}
	}
	if len(headings) > 0 {
		last, _ := excelize.ColumnNumberToName(len(headings))
		if err := f.SetColWidth(sheetName, "A", last, 18); err != nil {
			return err
		}
	}
	return nil
}

// newWorkbook renames the default sheet to first and appends the others.
func newWorkbook(first string, others ...string) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", first); err != nil {
		return nil, err
	}
	for _, name := range others {
		if _, err := f.NewSheet(name); err != nil {
			return nil, err
		}
	}
	return f, nil
}

type activityRow struct {
	*models.ActivityEntry
}

func (r activityRow) GetCellValues() []interface{} {
	return []interface{}{
		r.Timestamp.Format(timeLayout),
		utils.DereferencePtr(r.FullName, ""),
		r.ActionType,
		r.Description,
	}
}

// ActivityWorkbook builds the activity log export.
func ActivityWorkbook(entries []*models.ActivityEntry) (*excelize.File, error) {
	f, err := newWorkbook(activitySheet)
	if err != nil {
		return nil, err
	}
	rows := make([]activityRow, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, activityRow{e})
	}
	if err := writeSheet(f, activitySheet, []string{"Zeitpunkt", "Mitglied", "Aktion", "Beschreibung"}, rows); err != nil {
		return nil, err
	}
	return f, nil
}

type distributionArchiveRow struct {
	*models.HeroDistributionArchiveRow
}

func (r distributionArchiveRow) GetCellValues() []interface{} {
	name := r.MemberName
	if r.FullName != nil {
		name = r.FullName
	}
	return []interface{}{
		r.OriginalId,
		utils.DereferencePtr(name, ""),
		r.Quantity,
		r.UnitCost.InexactFloat64(),
		r.TotalCost.InexactFloat64(),
		r.ExpectedSalePrice.InexactFloat64(),
		r.GangShare.InexactFloat64(),
		r.PaidAmount.InexactFloat64(),
		string(r.Status),
		r.DistributedDate.Format(timeLayout),
		utils.DereferencePtr(r.Notes, ""),
	}
}

type salesArchiveRow struct {
	*models.HeroSalesArchiveRow
}

func (r salesArchiveRow) GetCellValues() []interface{} {
	name := r.MemberName
	if r.FullName != nil {
		name = r.FullName
	}
	paid := "Nein"
	if r.PaidToGang {
		paid = "Ja"
	}
	return []interface{}{
		r.OriginalId,
		utils.DereferencePtr(name, ""),
		r.Quantity,
		r.SalePrice.InexactFloat64(),
		r.TotalSale.InexactFloat64(),
		r.GangShare.InexactFloat64(),
		r.MemberShare.InexactFloat64(),
		paid,
		r.SaleDate.Format(timeLayout),
	}
}

// ArchiveWorkbook builds the export of one archived delivery cycle with a sheet
// for the distributions and one for the sales.
func ArchiveWorkbook(ctx context.Context, deliveryNumber int) (*excelize.File, error) {
	distributions, err := models.ListArchivedDistributions(ctx, &deliveryNumber)
	if err != nil {
		return nil, err
	}
	sales, err := models.ListArchivedSales(ctx, &deliveryNumber)
	if err != nil {
		return nil, err
	}
	if len(distributions) == 0 && len(sales) == 0 {
		return nil, utils.NewNotFoundError(fmt.Sprintf("Keine Archivdaten für Lieferung %d", deliveryNumber))
	}

	f, err := newWorkbook(distributionsSheet, salesSheet)
	if err != nil {
		return nil, err
	}
	dRows := make([]distributionArchiveRow, 0, len(distributions))
	for _, d := range distributions {
		dRows = append(dRows, distributionArchiveRow{d})
	}
	err = writeSheet(f, distributionsSheet, []string{
		"ID", "Mitglied", "Menge", "Stückkosten", "Gesamtkosten", "Erwarteter Verkaufspreis",
		"Gang-Anteil", "Bezahlt", "Status", "Ausgegeben am", "Notizen",
	}, dRows)
	if err != nil {
		return nil, err
	}

	sRows := make([]salesArchiveRow, 0, len(sales))
	for _, s := range sales {
		sRows = append(sRows, salesArchiveRow{s})
	}
	err = writeSheet(f, salesSheet, []string{
		"ID", "Mitglied", "Menge", "Verkaufspreis", "Umsatz", "Gang-Anteil", "Mitglied-Anteil",
		"An Gang bezahlt", "Verkauft am",
	}, sRows)
	if err != nil {
		return nil, err
	}
	return f, nil
}

// Write streams f and closes it.
func Write(f *excelize.File, w io.Writer) error {
	defer f.Close()
	return f.Write(w)
}
