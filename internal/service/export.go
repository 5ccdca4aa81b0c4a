package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/noah-isme/exdb-api/internal/models"
)

const (
	exportEmptyValue = "None"
	exportTimeLayout = "2006-01-02 15:04:05"
	exportSheetName  = "Experiences"
)

// ExportHeader is the fixed column order of search exports.
var ExportHeader = []string{
	"Name",
	"Status",
	"Author",
	"Planners",
	"Recognition",
	"Start Datetime",
	"End Datetime",
	"Type",
	"Subtypes",
	"Description",
	"Goals",
	"Keywords",
	"Audience",
	"Guest",
	"Guest Office",
	"Attendance",
	"Created Datetime",
	"Next Approver",
	"Funds",
	"Conclusion",
}

// ExportRows flattens experiences into export rows, header first.
func ExportRows(experiences []models.Experience, location *time.Location) [][]string {
	rows := make([][]string, 0, len(experiences)+1)
	rows = append(rows, append([]string(nil), ExportHeader...))

	for _, experience := range experiences {
		planners := make([]string, 0, len(experience.Planners))
		for _, planner := range experience.Planners {
			planners = append(planners, planner.FullName())
		}
		recognition := make([]string, 0, len(experience.Recognition))
		for _, section := range experience.Recognition {
			recognition = append(recognition, section.Name)
		}
		subtypes := make([]string, 0, len(experience.Subtypes))
		for _, subtype := range experience.Subtypes {
			subtypes = append(subtypes, subtype.Name)
		}
		keywords := make([]string, 0, len(experience.Keywords))
		for _, keyword := range experience.Keywords {
			keywords = append(keywords, keyword.Name)
		}

		typeName := exportEmptyValue
		if experience.Type != nil {
			typeName = experience.Type.Name
		}
		nextApprover := exportEmptyValue
		if experience.NextApprover != nil {
			nextApprover = experience.NextApprover.FullName()
		}
		attendance := exportEmptyValue
		if experience.Attendance != nil {
			attendance = strconv.Itoa(*experience.Attendance)
		}

		rows = append(rows, []string{
			experience.Name,
			models.StatusLabel(experience.Status),
			experience.Author.FullName(),
			joinList(planners),
			joinList(recognition),
			formatExportTime(experience.StartDatetime, location),
			formatExportTime(experience.EndDatetime, location),
			typeName,
			joinList(subtypes),
			experience.Description,
			experience.Goals,
			joinList(keywords),
			experience.Audience,
			experience.Guest,
			experience.GuestOffice,
			attendance,
			formatExportTime(&experience.CreatedAt, location),
			nextApprover,
			models.FundsLabel(experience.Funds),
			experience.Conclusion,
		})
	}

	return rows
}

// WriteCSV renders rows as RFC 4180 CSV.
func WriteCSV(rows [][]string) ([]byte, error) {
	buf := new(bytes.Buffer)
	writer := csv.NewWriter(buf)
	if err := writer.WriteAll(rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteXLSX renders rows as a single sheet workbook with a bold header row.
func WriteXLSX(rows [][]string) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(exportSheetName)
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Alignment: &excelize.Alignment{Vertical: "center"},
	})
	if err != nil {
		return nil, err
	}

	for r, row := range rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(exportSheetName, cell, value); err != nil {
				return nil, err
			}
		}
	}

	if len(ExportHeader) > 0 {
		last, _ := excelize.ColumnNumberToName(len(ExportHeader))
		if err := f.SetCellStyle(exportSheetName, "A1", fmt.Sprintf("%s1", last), headerStyle); err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheetName, "A", last, 20); err != nil {
			return nil, err
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func joinList(values []string) string {
	if len(values) == 0 {
		return exportEmptyValue
	}
	return strings.Join(values, ", ")
}

func formatExportTime(value *time.Time, location *time.Location) string {
	if value == nil || value.IsZero() {
		return exportEmptyValue
	}
	return value.In(location).Format(exportTimeLayout)
}
