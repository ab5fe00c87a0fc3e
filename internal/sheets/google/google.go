package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"diapertrack/internal/report"
	"diapertrack/internal/sheets"
)

// Publisher overwrites the Summary and Purchases sheets of one spreadsheet.
type Publisher struct {
	svc           *gsheet.Service
	spreadsheetID string
}

var _ sheets.ReportPublisher = (*Publisher)(nil)

// CredentialOptions builds the auth option from inline JSON or a key file,
// falling back to GOOGLE_APPLICATION_CREDENTIALS.
func CredentialOptions(ctx context.Context, credentialsFile, credentialsJSON string) ([]goption.ClientOption, error) {
	credentialsJSON = strings.TrimSpace(credentialsJSON)
	credentialsFile = strings.TrimSpace(credentialsFile)
	if credentialsJSON == "" && credentialsFile == "" {
		credentialsFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var raw []byte
	switch {
	case credentialsJSON != "":
		slog.InfoContext(ctx, "Using inline service account credentials")
		raw = []byte(credentialsJSON)
	case credentialsFile != "":
		b, err := os.ReadFile(credentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.InfoContext(ctx, "Read service account credentials", "path", credentialsFile, "size", len(b))
		raw = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	return []goption.ClientOption{
		goption.WithCredentialsJSON(raw),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func New(ctx context.Context, spreadsheetID string, opts ...goption.ClientOption) (*Publisher, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Publisher{svc: svc, spreadsheetID: spreadsheetID}, nil
}

func (p *Publisher) Publish(ctx context.Context, rep *report.Report) (string, error) {
	if err := p.ensureSheets(ctx, sheets.SummarySheet, sheets.PurchasesSheet); err != nil {
		return "", err
	}

	summary, purchases := sheets.Tables(rep)
	if err := p.replace(ctx, sheets.SummarySheet, summary); err != nil {
		return "", err
	}
	if err := p.replace(ctx, sheets.PurchasesSheet, purchases); err != nil {
		return "", err
	}

	ref := fmt.Sprintf("%s!A1:I%d", sheets.PurchasesSheet, len(purchases))
	slog.InfoContext(ctx, "Published report to Google Sheets",
		"spreadsheet_id", p.spreadsheetID,
		"purchases", len(rep.Rows),
		"ref", ref)
	return ref, nil
}

// ensureSheets adds any missing sheet tabs in one batch update.
func (p *Publisher) ensureSheets(ctx context.Context, titles ...string) error {
	ss, err := p.svc.Spreadsheets.Get(p.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("get spreadsheet %s: %w", p.spreadsheetID, err)
	}
	existing := make(map[string]bool, len(ss.Sheets))
	for _, s := range ss.Sheets {
		if s.Properties != nil {
			existing[s.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, t := range titles {
		if !existing[t] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: t}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = p.svc.Spreadsheets.BatchUpdate(p.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("add sheets: %w", err)
	}
	return nil
}

func (p *Publisher) replace(ctx context.Context, sheet string, values [][]any) error {
	all := fmt.Sprintf("'%s'", sheet)
	if _, err := p.svc.Spreadsheets.Values.Clear(p.spreadsheetID, all, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheet, err)
	}
	rng := fmt.Sprintf("'%s'!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	if _, err := p.svc.Spreadsheets.Values.Update(p.spreadsheetID, rng, vr).
		ValueInputOption("RAW").Context(ctx).Do(); err != nil {
		return fmt.Errorf("update sheet %s: %w", sheet, err)
	}
	return nil
}
