package services

import (
	"testing"

	"union-registration-system/mailer"
	"union-registration-system/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUnion(t *testing.T) {
	db := newTestDB(t)
	svc := NewUnionService(db, mailer.NewDispatcher(&stubTransport{}))

	t.Run("creates a pending union with canonical regions", func(t *testing.T) {
		union, err := svc.createUnion(UnionInput{
			Email:         "  Odisha.Union@Example.COM ",
			State:         "odisha",
			District:      "  khordha  ",
			SecretaryName: "R. Mohanty",
			Achievements:  []string{"State champions 2023", ""},
		})
		require.NoError(t, err)
		assert.Equal(t, "odisha.union@example.com", union.Email)
		assert.Equal(t, "Odisha", union.State)
		assert.Equal(t, "Khordha", union.District)
		assert.Equal(t, models.StatusPending, union.Status)
		assert.Empty(t, union.Password)
		require.Len(t, union.Achievements, 1)
		assert.Equal(t, "State champions 2023", union.Achievements[0].Text)
	})

	t.Run("rejects a duplicate email across statuses", func(t *testing.T) {
		_, err := svc.createUnion(UnionInput{
			Email:         "ODISHA.union@example.com",
			State:         "Kerala",
			SecretaryName: "Someone Else",
		})
		assert.ErrorIs(t, err, ErrDuplicateEmail)
	})

	t.Run("requires email, state and secretary name", func(t *testing.T) {
		_, err := svc.createUnion(UnionInput{State: "Odisha", SecretaryName: "X"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.createUnion(UnionInput{Email: "a@b.c", SecretaryName: "X"})
		assert.ErrorIs(t, err, ErrValidation)

		_, err = svc.createUnion(UnionInput{Email: "a@b.c", State: "Odisha"})
		assert.ErrorIs(t, err, ErrValidation)
	})
}

func TestApproveUnion(t *testing.T) {
	db := newTestDB(t)
	transport := &stubTransport{}
	svc := NewUnionService(db, mailer.NewDispatcher(transport))

	union := seedUnion(t, db, "Odisha", "Khordha", models.StatusPending)

	approved, err := svc.approveUnion(union.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.Equal(t, "admin-1", approved.ReviewedBy)
	assert.NotNil(t, approved.ReviewedAt)
	assert.Equal(t, "odisha@itka2020", approved.Password)
	assert.True(t, approved.EmailSent)
	require.Len(t, transport.messages, 1)
	assert.Equal(t, union.Email, transport.messages[0].To)

	t.Run("second approval loses the race", func(t *testing.T) {
		_, err := svc.approveUnion(union.ID, "admin-2")
		assert.ErrorIs(t, err, ErrAlreadyReviewed)

		// Side effects did not run twice.
		assert.Len(t, transport.messages, 1)
		var reloaded models.Union
		require.NoError(t, db.First(&reloaded, "id = ?", union.ID).Error)
		assert.Equal(t, "admin-1", reloaded.ReviewedBy)
		assert.Equal(t, "odisha@itka2020", reloaded.Password)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.approveUnion("nope", "admin-1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRejectUnion(t *testing.T) {
	db := newTestDB(t)
	svc := NewUnionService(db, mailer.NewDispatcher(&stubTransport{}))

	t.Run("records the supplied reason", func(t *testing.T) {
		union := seedUnion(t, db, "Kerala", "", models.StatusPending)
		rejected, err := svc.rejectUnion(union.ID, "admin-1", "incomplete paperwork")
		require.NoError(t, err)
		assert.Equal(t, models.StatusRejected, rejected.Status)
		assert.Equal(t, "incomplete paperwork", rejected.RejectionReason)
		assert.Empty(t, rejected.Password)
	})

	t.Run("falls back to the default reason", func(t *testing.T) {
		union := seedUnion(t, db, "Kerala", "Kochi", models.StatusPending)
		rejected, err := svc.rejectUnion(union.ID, "admin-1", "")
		require.NoError(t, err)
		assert.Equal(t, defaultRejectionReason, rejected.RejectionReason)
	})

	t.Run("rejecting an approved union fails", func(t *testing.T) {
		union := seedUnion(t, db, "Kerala", "Thrissur", models.StatusApproved)
		_, err := svc.rejectUnion(union.ID, "admin-1", "too late")
		assert.ErrorIs(t, err, ErrAlreadyReviewed)
	})
}

func TestUnionEmailDispatchRecovery(t *testing.T) {
	db := newTestDB(t)
	transport := &stubTransport{fail: true}
	svc := NewUnionService(db, mailer.NewDispatcher(transport))

	union := seedUnion(t, db, "Odisha", "", models.StatusPending)

	// Mail is down: the approval still stands, the failure is recorded.
	approved, err := svc.approveUnion(union.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	assert.False(t, approved.EmailSent)
	assert.Contains(t, approved.EmailError, "connection refused")
	assert.NotEmpty(t, approved.Password)

	// Mail recovers: resend delivers the same credential.
	transport.fail = false
	resent, result, err := svc.resendUnionEmail(union.ID)
	require.NoError(t, err)
	assert.True(t, result.Sent)
	assert.True(t, resent.EmailSent)
	assert.Empty(t, resent.EmailError)
	assert.Equal(t, approved.Password, resent.Password)
	require.Len(t, transport.messages, 1)
	assert.Contains(t, transport.messages[0].HTML, approved.Password)
}

func TestResendUnionEmailRequiresApproval(t *testing.T) {
	db := newTestDB(t)
	svc := NewUnionService(db, mailer.NewDispatcher(&stubTransport{}))

	union := seedUnion(t, db, "Odisha", "", models.StatusPending)
	_, _, err := svc.resendUnionEmail(union.ID)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateUnionProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewUnionService(db, mailer.NewDispatcher(&stubTransport{}))
	union := seedUnion(t, db, "Odisha", "Khordha", models.StatusApproved)

	t.Run("updates contact fields and drops empty ones", func(t *testing.T) {
		updated, err := svc.updateUnionProfile(union.ID, UnionPatch{
			Phone: "9999999999",
		})
		require.NoError(t, err)
		assert.Equal(t, "9999999999", updated.Phone)
		assert.Equal(t, "Test Secretary", updated.SecretaryName)
	})

	t.Run("state and district are immutable", func(t *testing.T) {
		_, err := svc.updateUnionProfile(union.ID, UnionPatch{State: "Kerala"})
		assert.ErrorIs(t, err, ErrImmutableField)

		_, err = svc.updateUnionProfile(union.ID, UnionPatch{District: "Puri"})
		assert.ErrorIs(t, err, ErrImmutableField)

		// Re-sending the current value is a no-op, not an error.
		_, err = svc.updateUnionProfile(union.ID, UnionPatch{State: "odisha"})
		assert.NoError(t, err)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := svc.updateUnionProfile("nope", UnionPatch{Phone: "1"})
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestListUnionsByDistrict(t *testing.T) {
	db := newTestDB(t)
	svc := NewUnionService(db, mailer.NewDispatcher(&stubTransport{}))

	stateHead := seedUnion(t, db, "Odisha", "", models.StatusApproved)
	khordha := seedUnion(t, db, "Odisha", "Khordha", models.StatusApproved)
	puri := seedUnion(t, db, "Odisha", "Puri", models.StatusApproved)
	seedUnion(t, db, "Kerala", "Kochi", models.StatusApproved)

	unions, err := svc.listByDistrict("odisha", "khordha")
	require.NoError(t, err)
	require.Len(t, unions, 3)
	assert.Equal(t, khordha.ID, unions[0].ID, "district match first")
	assert.Equal(t, stateHead.ID, unions[1].ID, "state head second")
	assert.Equal(t, puri.ID, unions[2].ID)
}
