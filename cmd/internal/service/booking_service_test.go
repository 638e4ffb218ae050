package service

import (
	"sync"
	"testing"
	"tradebook/cmd/internal/utils/apierror"
)

func TestCreateBooking(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	booking, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
		Description:    "leaking kitchen tap",
	})
	if apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}
	if booking.Status != "CONFIRMED" {
		t.Errorf("unexpected status: %s", booking.Status)
	}
	if booking.Description != "leaking kitchen tap" {
		t.Errorf("description lost: %q", booking.Description)
	}

	fetched, apierr := bookings.GetBooking(booking.ID)
	if apierr != nil {
		t.Fatalf("GetBooking failed: %s", apierr.Message())
	}
	if fetched.Slot != booking.Slot {
		t.Errorf("slot mismatch: %s != %s", fetched.Slot, booking.Slot)
	}
}

func TestCreateBookingRejectsOverlap(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	c1 := registerTestCustomer(t, directory, "c1", "Jane Doe")
	c2 := registerTestCustomer(t, directory, "c2", "John Roe")

	first, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     c1.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	if apierr != nil {
		t.Fatalf("first CreateBooking failed: %s", apierr.Message())
	}

	// The identical slot must be rejected.
	_, apierr = bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     c2.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	if apierr == nil || apierr.ErrorCode() != apierror.CodeSlotConflict {
		t.Fatalf("expected SlotConflict, got %v", apierr)
	}

	// Cancelling the first frees the slot for a retry.
	if _, apierr := bookings.CancelBooking(first.ID); apierr != nil {
		t.Fatalf("CancelBooking failed: %s", apierr.Message())
	}

	if _, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     c2.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	}); apierr != nil {
		t.Fatalf("retry after cancel failed: %s", apierr.Message())
	}
}

func TestCreateBookingValidation(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	t.Run("unknown customer", func(t *testing.T) {
		_, apierr := bookings.CreateBooking(&CreateBookingRequest{
			CustomerID:     "ghost",
			TradespersonID: plumber.ID,
			Slot:           futureSlot(24),
		})
		if apierr == nil || apierr.ErrorCode() != apierror.CodeNotFound {
			t.Errorf("expected NotFound, got %v", apierr)
		}
	})

	t.Run("unknown tradesperson", func(t *testing.T) {
		_, apierr := bookings.CreateBooking(&CreateBookingRequest{
			CustomerID:     customer.ID,
			TradespersonID: "ghost",
			Slot:           futureSlot(24),
		})
		if apierr == nil || apierr.ErrorCode() != apierror.CodeNotFound {
			t.Errorf("expected NotFound, got %v", apierr)
		}
	})

	t.Run("slot in the past", func(t *testing.T) {
		_, apierr := bookings.CreateBooking(&CreateBookingRequest{
			CustomerID:     customer.ID,
			TradespersonID: plumber.ID,
			Slot:           futureSlot(-24),
		})
		if apierr == nil || apierr.ErrorCode() != apierror.CodeInvalidInput {
			t.Errorf("expected InvalidInput, got %v", apierr)
		}
	})

	t.Run("slot not hour exact", func(t *testing.T) {
		_, apierr := bookings.CreateBooking(&CreateBookingRequest{
			CustomerID:     customer.ID,
			TradespersonID: plumber.ID,
			Slot:           "2031-06-15T10:30:00Z",
		})
		if apierr == nil || apierr.ErrorCode() != apierror.CodeInvalidInput {
			t.Errorf("expected InvalidInput, got %v", apierr)
		}
	})

	t.Run("malformed slot", func(t *testing.T) {
		_, apierr := bookings.CreateBooking(&CreateBookingRequest{
			CustomerID:     customer.ID,
			TradespersonID: plumber.ID,
			Slot:           "next tuesday",
		})
		if apierr == nil || apierr.ErrorCode() != apierror.CodeInvalidInput {
			t.Errorf("expected InvalidInput, got %v", apierr)
		}
	})
}

func TestConcurrentCreateBookingSingleWinner(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)

	const callers = 8
	for i := 0; i < callers; i++ {
		registerTestCustomer(t, directory, string(rune('a'+i)), "Caller")
	}

	slot := futureSlot(24)
	var wg sync.WaitGroup
	results := make([]apierror.ErrorResponse, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = bookings.CreateBooking(&CreateBookingRequest{
				CustomerID:     string(rune('a' + i)),
				TradespersonID: plumber.ID,
				Slot:           slot,
			})
		}(i)
	}
	wg.Wait()

	successes, conflicts := 0, 0
	for _, apierr := range results {
		switch {
		case apierr == nil:
			successes++
		case apierr.ErrorCode() == apierror.CodeSlotConflict:
			conflicts++
		default:
			t.Errorf("unexpected error: %s %s", apierr.ErrorCode(), apierr.Message())
		}
	}
	if successes != 1 || conflicts != callers-1 {
		t.Errorf("expected exactly one winner, got %d successes and %d conflicts", successes, conflicts)
	}
}

func TestCancelBooking(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	booking, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	if apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	cancelled, apierr := bookings.CancelBooking(booking.ID)
	if apierr != nil {
		t.Fatalf("CancelBooking failed: %s", apierr.Message())
	}
	if cancelled.Status != "CANCELLED" {
		t.Errorf("unexpected status: %s", cancelled.Status)
	}

	// The freed slot reads as available again.
	availability, apierr := bookings.CheckAvailability(&CheckAvailabilityRequest{
		TradespersonID: plumber.ID,
		Slot:           booking.Slot,
	})
	if apierr != nil {
		t.Fatalf("CheckAvailability failed: %s", apierr.Message())
	}
	if !availability.Available {
		t.Error("expected the cancelled slot to be available")
	}

	// Re-cancel is AlreadyCancelled, not NotFound.
	_, apierr = bookings.CancelBooking(booking.ID)
	if apierr == nil || apierr.ErrorCode() != apierror.CodeAlreadyCancelled {
		t.Errorf("expected AlreadyCancelled, got %v", apierr)
	}

	// Unknown booking is NotFound.
	_, apierr = bookings.CancelBooking("ghost")
	if apierr == nil || apierr.ErrorCode() != apierror.CodeNotFound {
		t.Errorf("expected NotFound, got %v", apierr)
	}
}

func TestRescheduleBooking(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	oldSlot, newSlot := futureSlot(24), futureSlot(48)
	booking, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           oldSlot,
	})
	if apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	moved, apierr := bookings.RescheduleBooking(booking.ID, &RescheduleBookingRequest{NewSlot: newSlot})
	if apierr != nil {
		t.Fatalf("RescheduleBooking failed: %s", apierr.Message())
	}
	if moved.Slot != newSlot {
		t.Errorf("unexpected slot after reschedule: %s", moved.Slot)
	}

	// The vacated slot is free again.
	availability, _ := bookings.CheckAvailability(&CheckAvailabilityRequest{
		TradespersonID: plumber.ID,
		Slot:           oldSlot,
	})
	if !availability.Available {
		t.Error("expected the vacated slot to be available")
	}
}

func TestRescheduleConflictLeavesBookingUntouched(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	c1 := registerTestCustomer(t, directory, "c1", "Jane Doe")
	c2 := registerTestCustomer(t, directory, "c2", "John Roe")

	takenSlot, victimSlot := futureSlot(48), futureSlot(24)
	if _, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     c1.ID,
		TradespersonID: plumber.ID,
		Slot:           takenSlot,
	}); apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	victim, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     c2.ID,
		TradespersonID: plumber.ID,
		Slot:           victimSlot,
	})
	if apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	_, apierr = bookings.RescheduleBooking(victim.ID, &RescheduleBookingRequest{NewSlot: takenSlot})
	if apierr == nil || apierr.ErrorCode() != apierror.CodeSlotConflict {
		t.Fatalf("expected SlotConflict, got %v", apierr)
	}

	// The failed move must not have mutated the booking.
	unchanged, apierr := bookings.GetBooking(victim.ID)
	if apierr != nil {
		t.Fatalf("GetBooking failed: %s", apierr.Message())
	}
	if unchanged.Slot != victimSlot {
		t.Errorf("booking slot changed after failed reschedule: %s", unchanged.Slot)
	}
}

func TestRescheduleCancelledBooking(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	booking, _ := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	if _, apierr := bookings.CancelBooking(booking.ID); apierr != nil {
		t.Fatalf("CancelBooking failed: %s", apierr.Message())
	}

	_, apierr := bookings.RescheduleBooking(booking.ID, &RescheduleBookingRequest{NewSlot: futureSlot(48)})
	if apierr == nil || apierr.ErrorCode() != apierror.CodeInvalidInput {
		t.Errorf("expected InvalidInput for a cancelled booking, got %v", apierr)
	}
}

func TestGetLatestBooking(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	_, apierr := bookings.GetLatestBooking(customer.ID)
	if apierr == nil || apierr.ErrorCode() != apierror.CodeNotFound {
		t.Fatalf("expected NotFound for a customer with no bookings, got %v", apierr)
	}

	early, _ := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	late, _ := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(72),
	})
	_, _ = bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(48),
	})
	_ = early

	latest, apierr := bookings.GetLatestBooking(customer.ID)
	if apierr != nil {
		t.Fatalf("GetLatestBooking failed: %s", apierr.Message())
	}
	if latest.ID != late.ID {
		t.Errorf("expected the booking with the latest slot, got %s", latest.Slot)
	}
}

func TestListFreeSlots(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	booked := futureSlot(26)
	if _, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           booked,
	}); apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	slots, apierr := bookings.ListFreeSlots(&ListFreeSlotsRequest{
		TradespersonID: plumber.ID,
		StartSlot:      futureSlot(24),
		EndSlot:        futureSlot(28),
	})
	if apierr != nil {
		t.Fatalf("ListFreeSlots failed: %s", apierr.Message())
	}

	if len(slots.AvailableTimeSlots) != 3 {
		t.Fatalf("expected 3 free slots in a 4-hour window with one booking, got %v", slots.AvailableTimeSlots)
	}
	for _, slot := range slots.AvailableTimeSlots {
		if slot == booked {
			t.Errorf("booked slot %s listed as free", booked)
		}
	}
}

func TestLoadScheduleRebuildsIndex(t *testing.T) {
	directory, bookings := newTestServices(t)
	plumber := registerPlumber(t, directory, "Pat the Plumber", 4.8)
	customer := registerTestCustomer(t, directory, "c1", "Jane Doe")

	booking, apierr := bookings.CreateBooking(&CreateBookingRequest{
		CustomerID:     customer.ID,
		TradespersonID: plumber.ID,
		Slot:           futureSlot(24),
	})
	if apierr != nil {
		t.Fatalf("CreateBooking failed: %s", apierr.Message())
	}

	// Simulate a restart: wipe the index and rebuild from the ledger.
	bookings.Index.Rebuild(nil)
	if err := bookings.LoadSchedule(); err != nil {
		t.Fatalf("LoadSchedule failed: %v", err)
	}

	availability, apierr := bookings.CheckAvailability(&CheckAvailabilityRequest{
		TradespersonID: plumber.ID,
		Slot:           booking.Slot,
	})
	if apierr != nil {
		t.Fatalf("CheckAvailability failed: %s", apierr.Message())
	}
	if availability.Available {
		t.Error("expected the rebuilt index to hold the confirmed booking")
	}
	if availability.ConflictingBookingID != booking.ID {
		t.Errorf("unexpected conflicting booking: %s", availability.ConflictingBookingID)
	}
}
