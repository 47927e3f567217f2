package report

import (
	"encoding/csv" // CSV writer
	"io"           // Output sink
	"strconv"      // Number formatting
	"time"         // Timestamp formatting
)

var detailHeader = []string{"No. Pesanan", "Tanggal", "Pelanggan", "Status", "Jumlah Item", "Pendapatan", "Keuntungan", "Total"}

// WriteDetailCSV writes one line per order of the detail section
func WriteDetailCSV(w io.Writer, rows []DetailRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(detailHeader); err != nil {
		return err
	}
	for _, r := range rows {
		qty := 0
		for _, it := range r.Items {
			qty += it.Quantity
		}
		record := []string{
			r.OrderNumber,
			r.CreatedAt.In(Location).Format(time.DateTime),
			r.Username,
			r.StatusLabel,
			strconv.Itoa(qty),
			formatAmount(r.Revenue),
			formatAmount(r.Profit),
			formatAmount(r.Total),
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
