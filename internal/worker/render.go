package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/cuongbtq/ecourts-causelist/internal/worker/domain"
)

// sampleCases fills the listing until cause lists are fetched from eCourts.
var sampleCases = []string{
	"Case No: ABC/123/2024 - Civil Appeal",
	"Case No: XYZ/456/2024 - Criminal Revision",
	"Case No: DEF/789/2024 - Writ Petition",
	"Case No: GHI/101/2024 - Money Suit",
	"Case No: JKL/202/2024 - Arbitration Case",
}

var unsafeNameChars = strings.NewReplacer("/", "-", `\`, "-", "\x00", "")

// FileName is the name under which a job's cause list is saved, e.g.
// causelist_Delhi_North_Tis Hazari_05_03_2025.pdf.
func FileName(job *domain.Job) string {
	parts := []string{
		"causelist",
		job.State,
		job.District,
		job.CourtComplex,
		strings.ReplaceAll(job.CauseDate, "-", "_"),
	}
	return unsafeNameChars.Replace(strings.Join(parts, "_")) + ".pdf"
}

// Renderer writes cause-list PDFs into a downloads directory.
type Renderer struct {
	dir string
	now func() time.Time
}

func NewRenderer(dir string) *Renderer {
	return &Renderer{dir: dir, now: time.Now}
}

// Render writes the cause list for job and returns its file name. The file
// appears in the directory only once fully written.
func (r *Renderer) Render(ctx context.Context, job *domain.Job) (string, error) {
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create downloads dir: %w", err)
	}

	name := FileName(job)
	pdf := r.document(job)
	if err := pdf.Error(); err != nil {
		return "", fmt.Errorf("failed to build pdf: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	tmp, err := os.CreateTemp(r.dir, ".causelist-*.pdf")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := pdf.Output(tmp); err != nil {
		tmp.Close()
		return "", fmt.Errorf("failed to write pdf: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close pdf: %w", err)
	}

	if err := os.Rename(tmp.Name(), filepath.Join(r.dir, name)); err != nil {
		return "", fmt.Errorf("failed to save pdf: %w", err)
	}
	return name, nil
}

func (r *Renderer) document(job *domain.Job) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle("eCourts Cause List", false)
	pdf.SetCreator("causelist-worker-service", false)
	pdf.SetCreationDate(r.now())
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "eCourts Cause List", "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "", 12)
	rows := [][2]string{
		{"State", job.State},
		{"District", job.District},
		{"Court Complex", job.CourtComplex},
		{"Court", job.CourtName},
		{"Date", job.CauseDate},
	}
	for _, row := range rows {
		pdf.CellFormat(40, 8, row[0]+":", "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 8, tr(row[1]), "", 1, "L", false, 0, "")
	}
	pdf.Ln(6)

	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(0, 8, "Sample Case List", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	for i, c := range sampleCases {
		pdf.CellFormat(10, 7, fmt.Sprintf("%d.", i+1), "", 0, "R", false, 0, "")
		pdf.CellFormat(0, 7, c, "", 1, "L", false, 0, "")
	}
	pdf.Ln(8)

	pdf.SetFont("Helvetica", "I", 9)
	pdf.MultiCell(0, 5, "This listing is generated for demonstration. Case entries are samples, not records fetched from eCourts.", "", "L", false)

	return pdf
}
