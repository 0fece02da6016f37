package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image/png"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/skip2/go-qrcode"

	"github.com/hausbuch/backend/internal/models"
)

// ReceiptService renders booking receipts as QR codes. The QR payload holds
// the journal entry fields a counterparty needs to verify the booking.
// Rendered images are cached in redis keyed by journal entry ID so repeated
// downloads skip the PNG encoding.
type ReceiptService struct {
	redis    *redis.Client
	currency string
}

// Receipt is the QR payload plus the rendered image.
type Receipt struct {
	JournalEntryID string `json:"journal_entry_id"`
	Payload        string `json:"payload"`
	ImagePNG       string `json:"image_png"` // base64 encoded
}

type ReceiptPayload struct {
	JournalEntryID  string    `json:"journal_entry_id"`
	RunningNumber   int64     `json:"running_number"`
	BookingTime     time.Time `json:"booking_time"`
	CreditAccountID string    `json:"credit_account_id"`
	DebitAccountID  string    `json:"debit_account_id"`
	Amount          uint64    `json:"amount"`
	Currency        string    `json:"currency"`
	Title           string    `json:"title"`
}

func NewReceiptService(redisClient *redis.Client, currency string) *ReceiptService {
	return &ReceiptService{redis: redisClient, currency: currency}
}

// GenerateReceipt renders the QR receipt for one journal entry.
func (s *ReceiptService) GenerateReceipt(ctx context.Context, entry models.JournalEntry) (*Receipt, error) {
	key := fmt.Sprintf("receipt:%s", entry.ID)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, key).Bytes(); err == nil {
			var receipt Receipt
			if err := json.Unmarshal(cached, &receipt); err == nil {
				return &receipt, nil
			}
		}
	}

	payload := ReceiptPayload{
		JournalEntryID:  entry.ID,
		RunningNumber:   entry.RunningNumber,
		BookingTime:     entry.BookingTime,
		CreditAccountID: entry.CreditAccountID,
		DebitAccountID:  entry.DebitAccountID,
		Amount:          entry.Amount,
		Currency:        s.currency,
		Title:           entry.Title,
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	qr, err := qrcode.New(string(jsonData), qrcode.Medium)
	if err != nil {
		return nil, fmt.Errorf("failed to render receipt QR: %w", err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, qr.Image(256)); err != nil {
		return nil, fmt.Errorf("failed to encode receipt PNG: %w", err)
	}

	receipt := &Receipt{
		JournalEntryID: entry.ID,
		Payload:        base64.URLEncoding.EncodeToString(jsonData),
		ImagePNG:       base64.StdEncoding.EncodeToString(buf.Bytes()),
	}

	if s.redis != nil {
		encoded, err := json.Marshal(receipt)
		if err == nil {
			if err := s.redis.Set(ctx, key, encoded, 24*time.Hour).Err(); err != nil {
				log.Printf("[RECEIPT] Failed to cache receipt for %s: %v", entry.ID, err)
			}
		}
	}

	return receipt, nil
}

// DecodeReceipt verifies and decodes a receipt payload back into its fields.
func (s *ReceiptService) DecodeReceipt(encoded string) (*ReceiptPayload, error) {
	jsonData, err := base64.URLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("invalid receipt payload")
	}

	var payload ReceiptPayload
	if err := json.Unmarshal(jsonData, &payload); err != nil {
		return nil, fmt.Errorf("invalid receipt payload")
	}

	return &payload, nil
}
