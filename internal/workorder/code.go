package workorder

import (
	"fmt"
	"strings"
	"time"

	equipment "github.com/ovaphlow/pitchfork/service-oneservis/internal/equipment/entity"
	"github.com/ovaphlow/pitchfork/service-oneservis/internal/workorder/entity"
)

const summaryExcerpt = 100

// RecordCode builds COR-/PRE- codes: the last six digits of the
// millisecond clock followed by a three digit random suffix.
func RecordCode(kind entity.Kind, now time.Time, suffix int) string {
	return fmt.Sprintf("%s-%06d%03d", kind.CodePrefix(), now.UnixMilli()%1_000_000, suffix%1000)
}

func OrderNumber(id int64) string   { return fmt.Sprintf("OT-%06d", id) }
func RequestNumber(id int64) string { return fmt.Sprintf("SOL-%06d", id) }

// Summary is the order summary generated from a client request, e.g.
// "CORRECTIVO: Pantalla sin imagen... - Monitor MN-001 (UCI)".
func Summary(kind entity.Kind, description string, e *equipment.Equipment) string {
	excerpt := strings.TrimSpace(description)
	if r := []rune(excerpt); len(r) > summaryExcerpt {
		excerpt = string(r[:summaryExcerpt]) + "..."
	}
	area := ""
	if e.Location != nil {
		area = e.Location.ServiceArea
	}
	return fmt.Sprintf("%s: %s - %s %s (%s)", strings.ToUpper(kind.Stored()), excerpt, e.Type, e.Serial, area)
}

// Detail is the text stored on the maintenance record.
func Detail(kind entity.Kind, p entity.Priority, in entity.RequestInput) string {
	heading := "SOLICITUD CORRECTIVA"
	if kind == entity.KindPreventive {
		heading = "SOLICITUD PREVENTIVA"
	}
	contact := fmt.Sprintf("%s (%s)", in.ContactName, in.ContactEmail)
	if in.ContactPhone != "" {
		contact += " - Tel: " + in.ContactPhone
	}
	notes := in.Notes
	if notes == "" {
		notes = "Ninguna"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s - Prioridad: %s\n\n", heading, p.Label())
	fmt.Fprintf(&b, "Descripción: %s\n\n", in.Description)
	fmt.Fprintf(&b, "Contacto: %s\n\n", contact)
	fmt.Fprintf(&b, "Observaciones: %s", notes)
	return b.String()
}
