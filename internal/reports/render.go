// Package reports renders analysis summaries as PDF and stores them by analysis id.
package reports

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"github.com/terra-clan/hiresense/internal/models"
)

const footer = "Generated by HireSense - resume analyzer"

// Render draws one analysis as an A4 PDF document
func Render(entry models.HistoryEntry) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(128, 128, 128)
		pdf.CellFormat(0, 10, footer, "", 0, "L", false, 0, "")
	})
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 20)
	pdf.CellFormat(0, 12, "HireSense - Resume Analysis Report", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	filename := entry.Filename
	if filename == "" {
		filename = "N/A"
	}
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 7, tr("File: "+filename), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 7, "Date: "+entry.UploadedAt, "", 1, "L", false, 0, "")
	if entry.TargetRole != "" {
		pdf.CellFormat(0, 7, tr("Target Role: "+entry.TargetRole), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetTextColor(0, 0, 139)
	pdf.CellFormat(70, 8, fmt.Sprintf("ATS Score: %.2f%%", entry.ATSScore), "", 0, "L", false, 0, "")
	pdf.SetTextColor(0, 100, 0)
	pdf.CellFormat(0, 8, fmt.Sprintf("JD Match: %.2f%%", entry.JDMatch), "", 1, "L", false, 0, "")
	pdf.SetTextColor(0, 0, 0)
	pdf.Ln(6)

	section(pdf, tr, "Recommended Roles:", entry.RecommendedRoles)
	pdf.Ln(4)
	section(pdf, tr, "Top Missing Skills:", entry.MissingSkills)

	if len(entry.RoleScores) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 13)
		pdf.CellFormat(0, 8, "Role Scores:", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 12)
		for _, rs := range entry.RoleScores {
			pdf.CellFormat(10, 6, "", "", 0, "L", false, 0, "")
			pdf.CellFormat(90, 6, tr(rs.Role), "", 0, "L", false, 0, "")
			pdf.CellFormat(0, 6, fmt.Sprintf("%.2f%%", rs.Score), "", 1, "L", false, 0, "")
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render report: %w", err)
	}
	return buf.Bytes(), nil
}

func section(pdf *fpdf.Fpdf, tr func(string) string, title string, items []string) {
	pdf.SetFont("Helvetica", "B", 13)
	pdf.CellFormat(0, 8, title, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	if len(items) == 0 {
		pdf.CellFormat(10, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, "none", "", 1, "L", false, 0, "")
		return
	}
	for _, item := range items {
		pdf.CellFormat(10, 6, "", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, tr("- "+item), "", 1, "L", false, 0, "")
	}
}
