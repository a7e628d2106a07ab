// Package gateway signs checkout orders for the hosted payment page and
// verifies the server-to-server notification the gateway sends back. The
// scheme follows PayHere: every hash is an upper-case hex MD5 over the
// concatenated fields and the upper-case MD5 of the merchant secret.
package gateway

import (
	"crypto/md5"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// StatusSuccess is the status_code the gateway reports for a captured payment.
const StatusSuccess = 2

var (
	ErrInvalidSignature = errors.New("payment notification signature mismatch")
	ErrNotConfigured    = errors.New("payment gateway merchant credentials are not configured")
)

type Config struct {
	CheckoutURL    string
	MerchantID     string
	MerchantSecret string
	Currency       string
	NotifyURL      string
	ReturnURL      string
	CancelURL      string
}

// Configured reports whether both merchant credentials are set.
func (c Config) Configured() bool {
	return strings.TrimSpace(c.MerchantID) != "" && strings.TrimSpace(c.MerchantSecret) != ""
}

// Order is the payload a client posts to the hosted checkout page.
type Order struct {
	CheckoutURL string `json:"checkout_url"`
	MerchantID  string `json:"merchant_id"`
	OrderID     string `json:"order_id"`
	Items       string `json:"items"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Hash        string `json:"hash"`
	NotifyURL   string `json:"notify_url"`
	ReturnURL   string `json:"return_url"`
	CancelURL   string `json:"cancel_url"`
}

// Notification is the gateway callback for one order.
type Notification struct {
	MerchantID string
	OrderID    string
	PaymentID  string
	Amount     string
	Currency   string
	StatusCode int
	Signature  string
}

type Signer struct {
	cfg        Config
	secretHash string
}

func NewSigner(cfg Config) *Signer {
	return &Signer{
		cfg:        cfg,
		secretHash: md5Upper(cfg.MerchantSecret),
	}
}

func (s *Signer) Configured() bool {
	return s.cfg.Configured()
}

func (s *Signer) Currency() string {
	return s.cfg.Currency
}

// NewOrder builds a signed order for the given session id and gross amount.
func (s *Signer) NewOrder(sessionID int64, amount decimal.Decimal, items string) Order {
	orderID := strconv.FormatInt(sessionID, 10)
	formatted := FormatAmount(amount)
	return Order{
		CheckoutURL: s.cfg.CheckoutURL,
		MerchantID:  s.cfg.MerchantID,
		OrderID:     orderID,
		Items:       items,
		Amount:      formatted,
		Currency:    s.cfg.Currency,
		Hash:        s.OrderHash(orderID, formatted, s.cfg.Currency),
		NotifyURL:   s.cfg.NotifyURL,
		ReturnURL:   s.cfg.ReturnURL,
		CancelURL:   s.cfg.CancelURL,
	}
}

func (s *Signer) OrderHash(orderID, amount, currency string) string {
	return md5Upper(s.cfg.MerchantID + orderID + amount + currency + s.secretHash)
}

func (s *Signer) NotificationHash(n Notification) string {
	return md5Upper(n.MerchantID + n.OrderID + n.Amount + n.Currency + strconv.Itoa(n.StatusCode) + s.secretHash)
}

// Verify checks the merchant id and signature of a notification. Without
// merchant credentials every notification is rejected with ErrNotConfigured.
func (s *Signer) Verify(n Notification) error {
	if !s.cfg.Configured() {
		return ErrNotConfigured
	}
	if n.MerchantID != s.cfg.MerchantID {
		return ErrInvalidSignature
	}
	expected := s.NotificationHash(n)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(strings.ToUpper(n.Signature))) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// FormatAmount renders an amount with exactly two decimals, as the gateway hashes it.
func FormatAmount(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

func md5Upper(value string) string {
	sum := md5.Sum([]byte(value))
	return strings.ToUpper(hex.EncodeToString(sum[:]))
}
