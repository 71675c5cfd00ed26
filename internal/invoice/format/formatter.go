package format

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

var seqPadRe = regexp.MustCompile(`\{SEQ(\d+)\}`)

const DefaultInvoiceNumberTemplate = "INV-{YYYY}{MM}{DD}-{SEQ4}"

// InvoiceNumber renders a printable number from the issue date and the
// invoice's position among invoices issued that day.
func InvoiceNumber(template string, issued time.Time, daySeq int64) (string, error) {
	if strings.TrimSpace(template) == "" {
		template = DefaultInvoiceNumberTemplate
	}
	if daySeq <= 0 {
		return "", fmt.Errorf("invalid invoice sequence: %d", daySeq)
	}

	out := strings.NewReplacer(
		"{YYYY}", issued.Format("2006"),
		"{YY}", issued.Format("06"),
		"{MM}", issued.Format("01"),
		"{DD}", issued.Format("02"),
		"{SEQ}", strconv.FormatInt(daySeq, 10),
	).Replace(template)

	out = seqPadRe.ReplaceAllStringFunc(out, func(m string) string {
		width, err := strconv.Atoi(seqPadRe.FindStringSubmatch(m)[1])
		if err != nil || width <= 0 {
			return m
		}
		return fmt.Sprintf("%0*d", width, daySeq)
	})

	if strings.ContainsAny(out, "{}") {
		return "", fmt.Errorf("unresolved token in invoice format: %s", out)
	}
	return out, nil
}

// FallbackNumber is used when the day sequence cannot be resolved.
func FallbackNumber(id snowflake.ID) string {
	return "INV-" + id.String()
}
