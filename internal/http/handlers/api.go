package handlers

import (
	"database/sql"
	"time"

	"bookbus/internal/http/middleware"
	"bookbus/internal/repositories"
	"bookbus/internal/services"

	"github.com/gin-gonic/gin"
)

// API holds what handlers need to build request-scoped services.
type API struct {
	DB          *sql.DB
	Secret      []byte
	Location    *time.Location
	LockTimeout time.Duration
	Retries     int
	CodeTTL     time.Duration
	Mailer      services.Mailer
}

func (a API) store() repositories.Store {
	return repositories.Store{DB: a.DB, LockTimeout: a.LockTimeout}
}

func (a API) ledger(c *gin.Context) services.LedgerService {
	return services.LedgerService{
		Store:     a.store(),
		Entries:   repositories.LedgerRepo{DB: a.DB},
		Users:     repositories.UserRepo{DB: a.DB},
		RequestID: middleware.GetRequestID(c),
	}
}

func (a API) bookings(c *gin.Context) services.BookingService {
	return services.BookingService{
		Store:     a.store(),
		Ledger:    a.ledger(c),
		Location:  a.Location,
		Retries:   a.Retries,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a API) availability() services.AvailabilityService {
	return services.AvailabilityService{Store: a.store(), Location: a.Location}
}

func (a API) catalog(c *gin.Context) services.CatalogService {
	return services.CatalogService{
		Stops:     repositories.StopRepo{DB: a.DB},
		Buses:     repositories.BusRepo{DB: a.DB},
		Location:  a.Location,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a API) auth(c *gin.Context) services.AuthService {
	return services.AuthService{
		Users:     repositories.UserRepo{DB: a.DB},
		Codes:     repositories.OTPRepo{DB: a.DB},
		Mailer:    a.Mailer,
		Secret:    a.Secret,
		CodeTTL:   a.CodeTTL,
		RequestID: middleware.GetRequestID(c),
	}
}

func (a API) reports(c *gin.Context) services.ReportService {
	return services.ReportService{
		Bookings:  repositories.BookingRepo{DB: a.DB},
		Buses:     repositories.BusRepo{DB: a.DB},
		Users:     repositories.UserRepo{DB: a.DB},
		RequestID: middleware.GetRequestID(c),
	}
}
