package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"bookbus/internal/domain"
	"bookbus/internal/domain/models"
	"bookbus/internal/repositories"
	"bookbus/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// ManifestRow is one exported booking line.
type ManifestRow struct {
	Reference  string
	Bus        string
	Seat       string
	TravelDate time.Time
	From       string
	To         string
	Passenger  string
	Email      string
	Phone      string
	Fare       int64
	Status     models.BookingStatus
}

type ticketData struct {
	Booking   models.Booking
	BusName   string
	From      models.RouteStop
	To        models.RouteStop
	Operator  string
	IssuedAt  time.Time
	SeatClass models.SeatClass
}

// ReportService exports booking data. It only reads.
type ReportService struct {
	Bookings repositories.BookingRepo
	Buses    repositories.BusRepo
	Users    repositories.UserRepo
	// Loaders replace the repositories in tests.
	RowLoader    func(ctx context.Context, f models.BookingFilter) ([]ManifestRow, error)
	TicketLoader func(ctx context.Context, bookingID int64) (ticketData, error)
	RequestID    string
}

const exportLimit = 10000

// ExportBookings renders the operator's bookings as csv or pdf.
func (s ReportService) ExportBookings(ctx context.Context, f models.BookingFilter, format string) ([]byte, string, string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = "csv"
	}
	if format != "csv" && format != "pdf" {
		return nil, "", "", domain.ValidationError{Field: "format", Msg: "must be csv or pdf"}
	}

	rows, err := s.loadRows(ctx, f)
	if err != nil {
		return nil, "", "", err
	}
	utils.LogEvent(s.RequestID, "reports", "export_bookings", fmt.Sprintf("operator_id=%d rows=%d format=%s", f.OperatorID, len(rows), format))

	base := fmt.Sprintf("BOOKINGS_%d_%s", f.OperatorID, time.Now().Format("20060102"))
	if format == "pdf" {
		data, err := buildManifestPDF(rows)
		return data, base + ".pdf", "application/pdf", err
	}
	data, err := buildManifestCSV(rows)
	return data, base + ".csv", "text/csv", err
}

func (s ReportService) loadRows(ctx context.Context, f models.BookingFilter) ([]ManifestRow, error) {
	if s.RowLoader != nil {
		return s.RowLoader(ctx, f)
	}

	buses := map[int64]models.Bus{}
	stopName := func(b models.Bus, stopID int64) string {
		for _, rs := range b.Route {
			if rs.Stop.ID == stopID {
				return rs.Stop.Name
			}
		}
		return strconv.FormatInt(stopID, 10)
	}

	out := []ManifestRow{}
	page := domain.Pagination{Page: 1, PageSize: 200}
	for {
		list, total, err := s.Bookings.List(ctx, f, page)
		if err != nil {
			return nil, err
		}
		for _, bk := range list {
			bus, ok := buses[bk.BusID]
			if !ok {
				if bus, err = s.Buses.Get(ctx, bk.BusID); err != nil {
					return nil, err
				}
				buses[bk.BusID] = bus
			}
			out = append(out, ManifestRow{
				Reference:  bk.Reference,
				Bus:        bus.Name,
				Seat:       bk.SeatName,
				TravelDate: bk.TravelDate,
				From:       stopName(bus, bk.BoardStopID),
				To:         stopName(bus, bk.AlightStopID),
				Passenger:  bk.Passenger.Name,
				Email:      bk.Passenger.Email,
				Phone:      bk.Passenger.Phone,
				Fare:       bk.Fare,
				Status:     bk.Status,
			})
		}
		if page.Page*page.PageSize >= total || len(out) >= exportLimit {
			return out, nil
		}
		page.Page++
	}
}

var manifestHeader = []string{"Reference", "Bus", "Seat", "Date", "From", "To", "Passenger", "Email", "Phone", "Fare", "Status"}

func buildManifestCSV(rows []ManifestRow) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(manifestHeader); err != nil {
		return nil, err
	}
	for _, r := range rows {
		if err := w.Write([]string{
			r.Reference, r.Bus, r.Seat, utils.FormatDate(r.TravelDate), r.From, r.To,
			r.Passenger, r.Email, r.Phone, strconv.FormatInt(r.Fare, 10), string(r.Status),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func buildManifestPDF(rows []ManifestRow) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetTitle("Booking manifest", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "BOOKING MANIFEST")
	pdf.Ln(12)

	widths := []float64{30, 36, 14, 22, 34, 34, 40, 26, 20, 20}
	cols := []string{"Reference", "Bus", "Seat", "Date", "From", "To", "Passenger", "Phone", "Fare", "Status"}

	pdf.SetFont("Helvetica", "B", 9)
	for i, c := range cols {
		pdf.CellFormat(widths[i], 7, c, "1", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	var total int64
	for _, r := range rows {
		cells := []string{
			clip(r.Reference, 14), clip(r.Bus, 22), r.Seat, utils.FormatDate(r.TravelDate),
			clip(r.From, 20), clip(r.To, 20), clip(r.Passenger, 26), clip(safe(r.Phone, "-"), 16),
			strconv.FormatInt(r.Fare, 10), string(r.Status),
		}
		for i, c := range cells {
			pdf.CellFormat(widths[i], 6, c, "1", 0, "L", false, 0, "")
		}
		pdf.Ln(-1)
		if r.Status.Active() {
			total += r.Fare
		}
	}

	pdf.Ln(4)
	pdf.SetFont("Helvetica", "B", 10)
	pdf.Cell(0, 7, fmt.Sprintf("Bookings: %d   Active fare total: %s", len(rows), utils.FormatCoins(total)))

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Ticket renders the e-ticket of one booking for its customer, the operator or an admin.
func (s ReportService) Ticket(ctx context.Context, bookingID int64, actor domain.RequestContext) ([]byte, string, error) {
	d, err := s.loadTicket(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	b := d.Booking
	if actor.Role != domain.RoleAdmin && actor.UserID != b.CustomerID && actor.UserID != b.OperatorID {
		return nil, "", domain.Reject(domain.ErrForbidden, "booking %d", bookingID)
	}
	utils.LogEvent(s.RequestID, "reports", "ticket", fmt.Sprintf("booking_id=%d", bookingID))
	return buildTicketPDF(d)
}

func (s ReportService) loadTicket(ctx context.Context, bookingID int64) (ticketData, error) {
	if s.TicketLoader != nil {
		return s.TicketLoader(ctx, bookingID)
	}
	b, err := s.Bookings.Get(ctx, bookingID)
	if err != nil {
		return ticketData{}, err
	}
	bus, err := s.Buses.Get(ctx, b.BusID)
	if err != nil {
		return ticketData{}, err
	}
	d := ticketData{Booking: b, BusName: bus.Name, IssuedAt: time.Now()}
	for _, rs := range bus.Route {
		switch rs.Stop.ID {
		case b.BoardStopID:
			d.From = rs
		case b.AlightStopID:
			d.To = rs
		}
	}
	if seat, ok := bus.SeatByID(b.SeatID); ok {
		d.SeatClass = seat.Class
	}
	if op, err := s.Users.Get(ctx, b.OperatorID); err == nil {
		d.Operator = safe(op.Name, op.Username)
	}
	return d, nil
}

func buildTicketPDF(d ticketData) ([]byte, string, error) {
	b := d.Booking
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Reference   : %s", b.Reference),
		fmt.Sprintf("Passenger   : %s", safe(b.Passenger.Name, "-")),
		fmt.Sprintf("Contact     : %s", safe(b.Passenger.Phone, safe(b.Passenger.Email, "-"))),
		fmt.Sprintf("Bus         : %s", safe(d.BusName, "-")),
		fmt.Sprintf("Operator    : %s", safe(d.Operator, "-")),
		fmt.Sprintf("Seat        : %s %s", safe(b.SeatName, "-"), string(d.SeatClass)),
		fmt.Sprintf("Travel date : %s", utils.FormatDate(b.TravelDate)),
		fmt.Sprintf("Board       : %s at %s", safe(d.From.Stop.Name, "-"), stopClock(d.From)),
		fmt.Sprintf("Alight      : %s at %s", safe(d.To.Stop.Name, "-"), stopClock(d.To)),
		fmt.Sprintf("Fare        : %s", utils.FormatCoins(b.Fare)),
		fmt.Sprintf("Status      : %s", b.Status),
	}
	for _, l := range lines {
		pdf.Cell(0, 7, l)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "Valid for one passenger on the seat and segment above. Issued "+d.IssuedAt.Format("2006-01-02 15:04")+".", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", utils.SafeFilenamePart(b.Reference), utils.SafeFilenamePart(b.SeatName))
	return buf.Bytes(), filename, nil
}

func stopClock(rs models.RouteStop) string {
	if rs.ArrivalTime == "" {
		return "-"
	}
	if rs.NextDay {
		return rs.ArrivalTime + " (+1 day)"
	}
	return rs.ArrivalTime
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "~"
}
