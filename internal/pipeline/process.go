package pipeline

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"orderconv/internal"
	"orderconv/internal/config"
	"orderconv/internal/intake"
	"orderconv/internal/storage"
	"orderconv/internal/util"
)

// ConvertDocument runs the whole pipeline for one document buffer. It
// is pure: catalog snapshots come in as parameters and nothing is
// written anywhere. Per-row problems land in the result's error and
// warning lists; only an unsupported format or an unreadable file is a
// hard error.
func ConvertDocument(cfg config.Config, buf []byte, filename string, products []internal.ProductEntry, customers []internal.CustomerEntry, schemes []internal.Scheme) (internal.ConversionResult, error) {
	doc, err := ExtractDocument(buf, filename)
	if err != nil {
		return internal.ConversionResult{}, err
	}

	candidates, errs, warns := BuildCandidates(doc)

	identifier := NewCustomerIdentifier(cfg.SupplierBlacklist)
	customerName := identifier.Identify(filename, doc.Rows)
	customerCode := resolveCustomerCode(customerName, customers)

	dec := NewDecomposer()
	matcher := NewMatcher(cfg, dec, products)

	result := internal.ConversionResult{
		CustomerName: customerName,
		CustomerCode: customerCode,
		Errors:       errs,
		Warnings:     warns,
	}

	for _, cand := range candidates {
		match := matcher.Match(cand.Description)
		if match.Product == nil {
			result.Failed = append(result.Failed, internal.FailedItem{
				RowNo:       cand.RowNo,
				Description: cand.Description,
				Reason:      "no acceptable catalog match",
			})
			continue
		}

		product := match.Product
		packSize := ResolvePackSize(cand.RawText, product)
		scheme := ResolveScheme(schemes, product.Code, cand.Qty)

		// The scheme table is authoritative; a free column in the sheet
		// that disagrees with it is flagged for manual review.
		if cand.FreeQty != nil && *cand.FreeQty != scheme.FreeQty {
			result.Warnings = append(result.Warnings, internal.RowIssue{
				RowNo: cand.RowNo, Field: "free_qty", Value: fmt.Sprintf("%g", *cand.FreeQty),
				Message: fmt.Sprintf("document declares free quantity %g but the scheme resolves to %g", *cand.FreeQty, scheme.FreeQty),
			})
		}

		result.Items = append(result.Items, internal.OrderLineItem{
			RowNo:         cand.RowNo,
			RawText:       cand.RawText,
			Description:   cand.Description,
			ProductCode:   product.Code,
			ProductName:   product.DisplayName,
			Division:      product.Division,
			Qty:           cand.Qty,
			PackSize:      packSize,
			BoxPack:       BoxPack(cand.Qty, packSize),
			FreeQty:       scheme.FreeQty,
			DiscountPct:   scheme.DiscountPct,
			SchemeApplied: scheme.Applied,
			Confidence:    match.Score,
			Strategy:      match.Strategy,
		})
	}

	return result, nil
}

// resolveCustomerCode links the identified name to the customer
// catalog. Best-effort: below the similarity bar the name stands alone.
func resolveCustomerCode(name string, customers []internal.CustomerEntry) *string {
	if name == internal.UnknownCustomer {
		return nil
	}
	norm := util.NormalizeName(name)
	bestScore := 0.80
	var best *string
	for i := range customers {
		score := util.DiceCoefficient(norm, util.NormalizeName(customers[i].DisplayName))
		if score > bestScore {
			bestScore = score
			best = util.StringPtr(customers[i].Code)
		}
	}
	return best
}

type ProcessingService struct {
	db  *storage.DB
	cfg config.Config
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg}
}

type ProcessResult struct {
	OrderID   int
	Processed int
	Failed    int
}

func (s *ProcessingService) ProcessByProviderMessageID(provider, messageID string) (ProcessResult, error) {
	doc, err := s.db.GetOrderDocByProviderMessageID(provider, messageID)
	if err != nil {
		return ProcessResult{}, err
	}
	if doc == nil {
		return ProcessResult{}, fmt.Errorf("no order document for provider=%s messageId=%s", provider, messageID)
	}
	return s.ProcessOrderDoc(*doc)
}

func (s *ProcessingService) ProcessPending(limit int, provider string) (int, int, error) {
	pending, err := s.db.ListOrderDocsByStatus("fetched", limit)
	if err != nil {
		return 0, 0, err
	}
	processedDocs := 0
	processedLines := 0
	for _, doc := range pending {
		if provider != "" && doc.Provider != provider {
			continue
		}
		res, err := s.ProcessOrderDoc(doc)
		if err != nil {
			return processedDocs, processedLines, err
		}
		processedDocs++
		processedLines += res.Processed
	}
	return processedDocs, processedLines, nil
}

func (s *ProcessingService) ProcessOrderDoc(doc internal.OrderDocRow) (ProcessResult, error) {
	start := time.Now()
	raw, err := os.ReadFile(doc.RawRef)
	if err != nil {
		return ProcessResult{}, err
	}

	files := []intake.OrderFile{{Name: doc.Filename, Data: raw}}
	if strings.HasSuffix(doc.RawRef, ".eml") {
		mail, err := intake.ParseOrderMail(raw)
		if err != nil {
			return ProcessResult{}, err
		}
		detect := intake.DetectOrderMail(firstNonEmpty(mail.Subject, doc.Subject), mail.Text, mail.AttachmentNames())
		if !detect.IsOrder {
			_ = s.db.UpdateOrderDocStatus(doc.ID, "skipped")
			_ = s.db.InsertRun(traceID(), doc.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"items": 0, "failed": 0})
			return ProcessResult{OrderID: doc.ID, Processed: 0}, nil
		}
		files = mail.Files
	}

	products, err := s.db.ListProducts()
	if err != nil {
		return ProcessResult{}, err
	}
	customers, err := s.db.ListCustomers()
	if err != nil {
		return ProcessResult{}, err
	}
	schemes, err := s.db.ListSchemes()
	if err != nil {
		return ProcessResult{}, err
	}

	if err := s.db.ClearOrderProcessing(doc.ID); err != nil {
		return ProcessResult{}, err
	}

	itemCount, failedCount := 0, 0
	for _, file := range files {
		result, err := ConvertDocument(s.cfg, file.Data, file.Name, products, customers, schemes)
		if err != nil {
			var unsupported *UnsupportedFormatError
			if errors.As(err, &unsupported) {
				continue
			}
			return ProcessResult{}, err
		}
		if err := s.db.SaveConversion(doc.ID, file.Name, result); err != nil {
			return ProcessResult{}, err
		}
		itemCount += len(result.Items)
		failedCount += len(result.Failed)
	}

	if err := s.db.UpdateOrderDocStatus(doc.ID, "processed"); err != nil {
		return ProcessResult{}, err
	}
	_ = s.db.InsertRun(traceID(), doc.ID, map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, map[string]int{"items": itemCount, "failed": failedCount})

	return ProcessResult{OrderID: doc.ID, Processed: itemCount, Failed: failedCount}, nil
}

func traceID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
