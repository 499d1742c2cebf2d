package export

import (
	"encoding/csv"
	"io"

	"github.com/tablero-fiscal/tablero/internal/dashboard"
)

// WritePageCSV serialises the page's cards, followed by its table when it has one.
// Values are written exactly as displayed.
func WritePageCSV(w io.Writer, page *dashboard.Page) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Indicador", "Valor", "Detalle"}); err != nil {
		return err
	}
	if err := writer.Write([]string{"Período", page.PeriodLabel, page.PeriodID}); err != nil {
		return err
	}
	for _, card := range page.Cards {
		detail := card.Sub
		if card.Note != "" {
			if detail != "" {
				detail += " | "
			}
			detail += card.Note
		}
		if err := writer.Write([]string{card.Label, card.Value, detail}); err != nil {
			return err
		}
	}
	if page.Table != nil {
		if err := writer.Write(nil); err != nil {
			return err
		}
		if err := writer.Write(page.Table.Headers); err != nil {
			return err
		}
		if err := writer.WriteAll(page.Table.Rows); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
