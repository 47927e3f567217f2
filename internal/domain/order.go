package domain

import "time"

// Order statuses. The status column stays free-form; these are the values the shop uses.
const (
	StatusMenungguPembayaran = "menunggu_pembayaran"
	StatusMenungguVerifikasi = "menunggu_verifikasi"
	StatusDibayar            = "dibayar"
	StatusPembayaranDiterima = "pembayaran_diterima"
	StatusDiproses           = "diproses"
	StatusDikirim            = "dikirim"
	StatusTerkirim           = "terkirim"
	StatusSelesai            = "selesai"
	StatusDibatalkan         = "dibatalkan"
)

var statusLabels = map[string]string{
	StatusMenungguPembayaran: "Menunggu Pembayaran",
	StatusMenungguVerifikasi: "Menunggu Verifikasi",
	StatusDibayar:            "Dibayar",
	StatusPembayaranDiterima: "Pembayaran Diterima",
	StatusDiproses:           "Diproses",
	StatusDikirim:            "Dikirim",
	StatusTerkirim:           "Terkirim",
	StatusSelesai:            "Selesai",
	StatusDibatalkan:         "Dibatalkan",
}

// StatusLabel returns the human readable label of a status, or the status itself when unknown
func StatusLabel(status string) string {
	if label, ok := statusLabels[status]; ok {
		return label
	}
	return status
}

// Shipping holds the delivery details of an order
type Shipping struct {
	Name       string `gorm:"size:100" json:"name"`
	Phone      string `gorm:"size:30" json:"phone"`
	Address    string `gorm:"type:text" json:"address"`
	City       string `gorm:"size:100" json:"city"`
	PostalCode string `gorm:"size:10" json:"postalCode"`
	Courier    string `gorm:"size:50" json:"courier"`
}

// Payment holds how the customer pays
type Payment struct {
	Method      string `gorm:"size:50" json:"method"`
	Bank        string `gorm:"size:50" json:"bank"`
	AccountName string `gorm:"size:100" json:"accountName"`
}

// Order Model
type Order struct {
	ID           uint        `gorm:"primaryKey" json:"id"`                                             // Primary key
	OrderNumber  string      `gorm:"size:40;uniqueIndex;not null" json:"orderNumber"`                  // Customer facing number
	UserID       uint        `gorm:"index;not null" json:"userId"`                                     // Buyer
	Items        []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"items"`      // Line items
	Shipping     Shipping    `gorm:"embedded;embeddedPrefix:shipping_" json:"shipping"`                // Delivery details
	Payment      Payment     `gorm:"embedded;embeddedPrefix:payment_" json:"payment"`                  // Payment details
	Status       string      `gorm:"size:40;index;not null;default:menunggu_pembayaran" json:"status"` // Fulfilment stage
	Subtotal     float64     `gorm:"not null" json:"subtotal"`                                         // Sum of line items
	ShippingCost float64     `gorm:"not null;default:0" json:"shippingCost"`                           // Delivery fee
	Total        float64     `gorm:"not null" json:"total"`                                            // Subtotal plus shipping
	PaymentProof string      `gorm:"size:255" json:"paymentProof,omitempty"`                           // Uploaded transfer receipt
	CreatedAt    time.Time   `gorm:"index" json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// OrderItem Model
type OrderItem struct {
	ID        uint    `gorm:"primaryKey" json:"-"`             // Primary key
	OrderID   uint    `gorm:"index;not null" json:"-"`         // Owning order
	ProductID uint    `gorm:"index;not null" json:"productId"` // Purchased product
	Quantity  int     `gorm:"not null" json:"quantity"`        // Units bought
	Price     float64 `gorm:"not null" json:"price"`           // Unit price at purchase time
}
