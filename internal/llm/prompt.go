package llm

import (
	"fmt"

	"github.com/facturio/invoice-analyzer/constants"
)

const promptContract = `Devuelve EXCLUSIVAMENTE un objeto JSON con esta forma, sin texto adicional:
{
  "%s": "nombre o null",
  "invoice_date": "yyyy-mm-dd o null",
  "payment_terms_days": numero o null,
  "payment_dates": ["yyyy-mm-dd", ...],
  "totals": {
    "base_amount": numero o null,
    "vat_rate": numero o null,
    "vat_amount": numero o null,
    "total_amount": numero o null
  },
  "vat_breakdown": [
    {"rate": numero, "base": numero, "vat_amount": numero, "total": numero}
  ]
}
Reglas:
- Los importes usan punto decimal y sin simbolo de moneda.
- Si la factura tiene varios tipos de IVA, rellena vat_breakdown con una linea por tipo.
- Si un dato no aparece en el texto, usa null. No inventes valores.
- "RECIBO N DIAS FECHA FACTURA" significa payment_terms_days = N.`

// BuildPrompt returns the extraction prompt for an invoice text. The
// counterparty asked for flips with the document type: expenses name
// the supplier, income invoices name the client.
func BuildPrompt(docType constants.DocumentType, text string) string {
	party := "supplier"
	role := "el proveedor que emite la factura"
	if docType == constants.DocumentIncome {
		party = "client"
		role = "el cliente al que se factura"
	}
	contract := fmt.Sprintf(promptContract, party)
	return fmt.Sprintf(
		"Eres un analista contable. Extrae los datos de esta factura espanola.\n"+
			"Identifica %s en el campo %q.\n\n%s\n\nTEXTO DE LA FACTURA:\n%s",
		role, party, contract, text,
	)
}
