package domain_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smartsolutionslab/orange-car-rental-solution-sub002/internal/domain"
)

// ---- helpers ---------------------------------------------------------------

var (
	bookedAt   = time.Date(2025, 5, 20, 10, 0, 0, 0, time.UTC)
	testPrice  = domain.Money{Net: 20000, VAT: 3800, Gross: 23800, Currency: "EUR"}
	testStatus = []domain.Status{
		domain.StatusPending,
		domain.StatusConfirmed,
		domain.StatusActive,
		domain.StatusCompleted,
		domain.StatusCancelled,
		domain.StatusNoShow,
	}
)

func createdEvent(t *testing.T) domain.ReservationCreated {
	t.Helper()
	e, err := domain.Create(uuid.New(), domain.NewReservation{
		VehicleID:           uuid.New(),
		CustomerID:          uuid.New(),
		PickupDate:          date(t, "2025-06-01"),
		ReturnDate:          date(t, "2025-06-05"),
		PickupLocationCode:  "BER-HBF",
		DropoffLocationCode: "MUC-APT",
		TotalPrice:          testPrice,
	}, bookedAt)
	require.NoError(t, err)
	return e
}

// reservationIn folds the shortest event history that leads to status.
func reservationIn(t *testing.T, status domain.Status) domain.Reservation {
	t.Helper()
	at := bookedAt
	events := []domain.Event{createdEvent(t)}
	switch status {
	case domain.StatusPending:
	case domain.StatusConfirmed:
		events = append(events, domain.ReservationConfirmed{At: at})
	case domain.StatusActive:
		events = append(events, domain.ReservationConfirmed{At: at}, domain.ReservationActivated{At: at})
	case domain.StatusCompleted:
		events = append(events, domain.ReservationConfirmed{At: at}, domain.ReservationActivated{At: at}, domain.ReservationCompleted{At: at})
	case domain.StatusCancelled:
		events = append(events, domain.ReservationCancelled{Reason: "test", At: at})
	case domain.StatusNoShow:
		events = append(events, domain.ReservationConfirmed{At: at}, domain.ReservationMarkedNoShow{Reason: "test", At: at})
	}
	r, err := domain.Replay(events)
	require.NoError(t, err)
	require.Equal(t, status, r.Status)
	return r
}

// ---- Create ----------------------------------------------------------------

func TestCreate_OK(t *testing.T) {
	e := createdEvent(t)

	assert.Equal(t, domain.EventReservationCreated, e.EventType())
	assert.Equal(t, bookedAt, e.OccurredAt())
	assert.Equal(t, 5, e.Period.Days())
}

func TestCreate_Validation(t *testing.T) {
	valid := domain.NewReservation{
		VehicleID:           uuid.New(),
		CustomerID:          uuid.New(),
		PickupDate:          date(t, "2025-06-01"),
		ReturnDate:          date(t, "2025-06-05"),
		PickupLocationCode:  "BER-HBF",
		DropoffLocationCode: "BER-HBF",
	}

	noVehicle := valid
	noVehicle.VehicleID = uuid.Nil
	_, err := domain.Create(uuid.New(), noVehicle, bookedAt)
	assert.ErrorIs(t, err, domain.ErrValidation)

	noLocation := valid
	noLocation.DropoffLocationCode = "  "
	_, err = domain.Create(uuid.New(), noLocation, bookedAt)
	assert.ErrorIs(t, err, domain.ErrValidation)

	pastPickup := valid
	pastPickup.PickupDate = date(t, "2025-05-01")
	_, err = domain.Create(uuid.New(), pastPickup, bookedAt)
	assert.ErrorIs(t, err, domain.ErrInvalidPeriod)
}

// ---- Confirm ---------------------------------------------------------------

func TestConfirm_FromPending(t *testing.T) {
	r := reservationIn(t, domain.StatusPending)
	now := bookedAt.Add(time.Hour)

	e, err := domain.Confirm(r, now)

	require.NoError(t, err)
	r = domain.Apply(r, e)
	assert.Equal(t, domain.StatusConfirmed, r.Status)
	require.NotNil(t, r.ConfirmedAt)
	assert.Equal(t, now, *r.ConfirmedAt)

	// Confirming twice is not allowed.
	_, err = domain.Confirm(r, now)
	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
}

// ---- Cancel ----------------------------------------------------------------

func TestCancel_FromPending(t *testing.T) {
	r := reservationIn(t, domain.StatusPending)

	e, err := domain.Cancel(r, " changed plans ", bookedAt)

	require.NoError(t, err)
	r = domain.Apply(r, e)
	assert.Equal(t, domain.StatusCancelled, r.Status)
	assert.Equal(t, "changed plans", r.CancellationReason)
	assert.False(t, r.LateCancellation, "cancelled 12 days ahead")
	require.NotNil(t, r.CancelledAt)
}

func TestCancel_AlreadyCancelledIsNoop(t *testing.T) {
	r := reservationIn(t, domain.StatusCancelled)

	e, err := domain.Cancel(r, "again", bookedAt)

	require.NoError(t, err)
	assert.Nil(t, e, "no event is produced")
}

func TestCancel_LateWithin48Hours(t *testing.T) {
	r := reservationIn(t, domain.StatusConfirmed)
	now := r.Period.PickupDate.Add(-47 * time.Hour)

	e, err := domain.Cancel(r, "", now)

	require.NoError(t, err)
	assert.True(t, e.(domain.ReservationCancelled).Late)
}

func TestCancel_Illegal(t *testing.T) {
	for _, s := range []domain.Status{domain.StatusActive, domain.StatusCompleted, domain.StatusNoShow} {
		t.Run(string(s), func(t *testing.T) {
			_, err := domain.Cancel(reservationIn(t, s), "x", bookedAt)
			assert.ErrorIs(t, err, domain.ErrIllegalTransition)
		})
	}
}

// ---- Activate --------------------------------------------------------------

func TestActivate(t *testing.T) {
	r := reservationIn(t, domain.StatusConfirmed)

	_, err := domain.Activate(r, date(t, "2025-05-31").Add(23*time.Hour))
	assert.ErrorIs(t, err, domain.ErrTooEarly)

	e, err := domain.Activate(r, date(t, "2025-06-01").Add(8*time.Hour))
	require.NoError(t, err)
	r = domain.Apply(r, e)
	assert.Equal(t, domain.StatusActive, r.Status)
	assert.NotNil(t, r.ActivatedAt)
}

func TestActivate_PendingIsIllegalEvenWhenTooEarly(t *testing.T) {
	_, err := domain.Activate(reservationIn(t, domain.StatusPending), bookedAt)

	assert.ErrorIs(t, err, domain.ErrIllegalTransition)
	assert.NotErrorIs(t, err, domain.ErrTooEarly)
}

// ---- Complete --------------------------------------------------------------

func TestComplete_FromActive(t *testing.T) {
	r := reservationIn(t, domain.StatusActive)

	e, err := domain.Complete(r, date(t, "2025-06-05"))

	require.NoError(t, err)
	r = domain.Apply(r, e)
	assert.Equal(t, domain.StatusCompleted, r.Status)
	assert.NotNil(t, r.CompletedAt)
}

// ---- MarkNoShow ------------------------------------------------------------

func TestMarkNoShow(t *testing.T) {
	r := reservationIn(t, domain.StatusConfirmed)

	_, err := domain.MarkNoShow(r, "customer did not arrive", date(t, "2025-06-01").Add(20*time.Hour))
	assert.ErrorIs(t, err, domain.ErrTooEarly)

	e, err := domain.MarkNoShow(r, "customer did not arrive", date(t, "2025-06-02"))
	require.NoError(t, err)
	r = domain.Apply(r, e)
	assert.Equal(t, domain.StatusNoShow, r.Status)
	assert.Equal(t, "customer did not arrive", r.NoShowReason)
}

func TestMarkNoShow_ReasonRequired(t *testing.T) {
	_, err := domain.MarkNoShow(reservationIn(t, domain.StatusConfirmed), " ", date(t, "2025-06-02"))

	assert.ErrorIs(t, err, domain.ErrValidation)
}

// ---- totality --------------------------------------------------------------

// TestStateMachine_Totality checks every (status, command) pair. Pairs not
// explicitly allowed must fail with ErrIllegalTransition and produce no event.
// The clock is set well after pickup so timing guards never interfere.
func TestStateMachine_Totality(t *testing.T) {
	late := date(t, "2025-07-01")

	commands := map[string]func(domain.Reservation) (domain.Event, error){
		"confirm":  func(r domain.Reservation) (domain.Event, error) { return domain.Confirm(r, late) },
		"cancel":   func(r domain.Reservation) (domain.Event, error) { return domain.Cancel(r, "x", late) },
		"activate": func(r domain.Reservation) (domain.Event, error) { return domain.Activate(r, late) },
		"complete": func(r domain.Reservation) (domain.Event, error) { return domain.Complete(r, late) },
		"no-show":  func(r domain.Reservation) (domain.Event, error) { return domain.MarkNoShow(r, "x", late) },
	}

	allowed := map[domain.Status]map[string]domain.Status{
		domain.StatusPending:   {"confirm": domain.StatusConfirmed, "cancel": domain.StatusCancelled},
		domain.StatusConfirmed: {"cancel": domain.StatusCancelled, "activate": domain.StatusActive, "no-show": domain.StatusNoShow},
		domain.StatusActive:    {"complete": domain.StatusCompleted},
		domain.StatusCancelled: {"cancel": domain.StatusCancelled},
	}

	for _, s := range testStatus {
		for name, cmd := range commands {
			t.Run(string(s)+"/"+name, func(t *testing.T) {
				r := reservationIn(t, s)
				e, err := cmd(r)

				want, ok := allowed[s][name]
				if !ok {
					assert.ErrorIs(t, err, domain.ErrIllegalTransition)
					assert.Nil(t, e)
					return
				}
				require.NoError(t, err)
				if e != nil {
					r = domain.Apply(r, e)
				}
				assert.Equal(t, want, r.Status)
			})
		}
	}
}
