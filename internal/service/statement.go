package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"time"

	"campus-billing/internal/clients"
	"campus-billing/internal/domain"
	"campus-billing/internal/repository"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
)

type StatementBillRepository interface {
	List(ctx context.Context, f repository.BillsFilter) ([]domain.Bill, error)
}

type ExportStatus struct {
	Key      string    `json:"key"`
	Type     string    `json:"type"`
	ActorID  string    `json:"actor_id"`
	Student  string    `json:"student_id"`
	Progress float64   `json:"progress"`
	FileURL  *string   `json:"file_url"`
	Error    *string   `json:"error,omitempty"`
	Created  time.Time `json:"created_at"`
}

const (
	statementSetKey = "statement_ids"
	statementTTL    = 20 * time.Minute
)

type BillColumn struct {
	Header string
	Value  func(b domain.Bill) any
}

func strPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func timePtr(p *time.Time) string {
	if p == nil {
		return ""
	}
	return p.Format("2006-01-02 15:04:05")
}

var billColumnOrder = []string{
	"id", "enrollment_id", "amount", "due_date", "status",
	"payment_date", "payment_method", "transaction_ref", "notes",
}

var statementColumns = map[string]BillColumn{
	"id":              {Header: "Bill ID", Value: func(b domain.Bill) any { return b.ID }},
	"enrollment_id":   {Header: "Enrollment", Value: func(b domain.Bill) any { return strPtr(b.EnrollmentID) }},
	"amount":          {Header: "Amount", Value: func(b domain.Bill) any { return b.Amount.String() }},
	"due_date":        {Header: "Due Date", Value: func(b domain.Bill) any { return b.DueDate.Format("2006-01-02") }},
	"status":          {Header: "Status", Value: func(b domain.Bill) any { return string(b.Status) }},
	"payment_date":    {Header: "Payment Date", Value: func(b domain.Bill) any { return timePtr(b.PaymentDate) }},
	"payment_method":  {Header: "Payment Method", Value: func(b domain.Bill) any { return strPtr(b.PaymentMethod) }},
	"transaction_ref": {Header: "Reference", Value: func(b domain.Bill) any { return strPtr(b.TransactionRef) }},
	"notes":           {Header: "Notes", Value: func(b domain.Bill) any { return strPtr(b.Notes) }},
}

// StatementService generates XLSX account statements of a student's bills in
// the background, tracking progress in redis and pushing websocket events.
type StatementService struct {
	bills   StatementBillRepository
	redis   *clients.RedisClient
	storage *clients.StorageClient
	s3      *clients.S3Client
	ws      *clients.WebSocketClient
}

func NewStatementService(
	bills StatementBillRepository,
	redis *clients.RedisClient,
	storage *clients.StorageClient,
	s3 *clients.S3Client,
	ws *clients.WebSocketClient,
) *StatementService {
	return &StatementService{
		bills:   bills,
		redis:   redis,
		storage: storage,
		s3:      s3,
		ws:      ws,
	}
}

func (s *StatementService) saveStatus(ctx context.Context, st *ExportStatus) error {
	if s.redis == nil {
		return nil
	}
	data, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.redis.Set(ctx, st.Key, string(data), statementTTL); err != nil {
		return err
	}
	return s.redis.SAdd(ctx, statementSetKey, st.Key)
}

// StartStatementExport queues an export of the student's bills and returns
// its id immediately; progress and the final file URL arrive over redis and
// the websocket.
func (s *StatementService) StartStatementExport(ctx context.Context, studentID, actorID string) (string, error) {
	if studentID == "" {
		return "", fmt.Errorf("student id is required")
	}

	exportID := fmt.Sprintf("statements:%s", uuid.NewString())
	now := time.Now()

	status := &ExportStatus{
		Key:      exportID,
		Type:     "statement",
		ActorID:  actorID,
		Student:  studentID,
		Progress: 0,
		FileURL:  nil,
		Created:  now,
	}

	_ = s.saveStatus(ctx, status)

	go s.runStatementExport(context.Background(), exportID, studentID, actorID, now)

	return exportID, nil
}

func (s *StatementService) runStatementExport(ctx context.Context, exportID, studentID, actorID string, createdAt time.Time) {
	status := &ExportStatus{
		Key:     exportID,
		Type:    "statement",
		ActorID: actorID,
		Student: studentID,
		Created: createdAt,
	}

	fail := func(msg string, err error) {
		errStr := fmt.Sprintf("%s: %v", msg, err)
		log.Printf("statement %s: %s", exportID, errStr)
		status.Error = &errStr
		status.Progress = 100
		_ = s.saveStatus(ctx, status)
		if s.ws != nil {
			_ = s.ws.NotifyStatementFailed(ctx, actorID, exportID, errStr)
		}
	}

	bills, err := s.bills.List(ctx, repository.BillsFilter{StudentID: &studentID})
	if err != nil {
		fail("list bills failed", err)
		return
	}

	f := excelize.NewFile()
	sheet := "Statement"
	f.SetSheetName(f.GetSheetName(0), sheet)

	_ = f.SetDocProps(&excelize.DocProperties{Creator: fmt.Sprintf("actor_%s", actorID)})

	for i, key := range billColumnOrder {
		col := statementColumns[key]
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, col.Header)
	}

	total := len(bills)
	rowIdx := 2
	chunkSize := 100
	for i, b := range bills {
		for colIdx, key := range billColumnOrder {
			col := statementColumns[key]
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx)
			_ = f.SetCellValue(sheet, cell, col.Value(b))
		}
		rowIdx++

		if (i+1)%chunkSize == 0 || i == total-1 {
			raw := float64(i+1) / float64(total) * 100.0
			progress := math.Round(raw)
			if progress >= 100 {
				progress = 95
			}
			status.Progress = progress
			_ = s.saveStatus(ctx, status)
			if s.ws != nil {
				_ = s.ws.NotifyStatementProgress(ctx, actorID, exportID, progress, "generating")
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		fail("write workbook failed", err)
		return
	}
	data := buf.Bytes()

	fileName := fmt.Sprintf("statement_%s_%s.xlsx", studentID, time.Now().Format("20060102_150405"))

	status.Progress = 95
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyStatementProgress(ctx, actorID, exportID, 95, "uploading")
	}

	var url string
	if s.s3 != nil {
		key, err := s.s3.UploadXLSX(ctx, fileName, data)
		if err != nil {
			fail("upload statement failed", err)
			return
		}
		url, err = s.s3.GetTemporaryURL(ctx, key, statementTTL)
		if err != nil {
			fail("presign statement failed", err)
			return
		}
	} else if s.storage != nil {
		savedName, err := s.storage.Save(ctx, fileName, data)
		if err != nil {
			fail("save statement failed", err)
			return
		}
		url = s.storage.GetURL(savedName)
	}

	status.FileURL = &url
	status.Progress = 100
	_ = s.saveStatus(ctx, status)
	if s.ws != nil {
		_ = s.ws.NotifyStatementProgress(ctx, actorID, exportID, 100, "ready")
		_ = s.ws.NotifyStatementComplete(ctx, actorID, exportID, url, fileName)
	}
}
