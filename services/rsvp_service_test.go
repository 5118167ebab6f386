package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"team-rsvp/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRSVPService(t *testing.T) *RSVPService {
	t.Helper()
	svc := NewRSVPService(newTestDB(t), zap.NewNop())
	svc.now = stepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return svc
}

func Test_GetOrCreateUser_Is_Case_Insensitive(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)

	// Act
	first, err := svc.GetOrCreateUser(ctx, "Alice")
	require.NoError(t, err)
	second, err := svc.GetOrCreateUser(ctx, "  ALICE ")
	require.NoError(t, err)

	// Assert
	require.Equal(t, first, second)

	var user models.User
	require.NoError(t, svc.DB.First(&user, "id = ?", first).Error)
	require.Equal(t, "alice", user.Name)
}

func Test_GetOrCreateUser_Rejects_Empty_Name(t *testing.T) {
	svc := newTestRSVPService(t)

	_, err := svc.GetOrCreateUser(context.Background(), "   ")

	require.ErrorIs(t, err, ErrInvalidInput)
}

func Test_SetRSVP_Replaces_Previous_Vote(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	userID, err := svc.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)

	// Act
	_, err = svc.SetRSVP(ctx, userID, "evt-1", models.ParticipationIn)
	require.NoError(t, err)
	latest, err := svc.SetRSVP(ctx, userID, "evt-1", models.ParticipationOut)
	require.NoError(t, err)

	// Assert
	var count int64
	require.NoError(t, svc.DB.Model(&models.RSVP{}).Where("user_id = ? AND event_uid = ?", userID, "evt-1").Count(&count).Error)
	require.Equal(t, int64(1), count)

	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), in)
	require.Equal(t, int64(1), out)
	require.Equal(t, models.ParticipationOut, latest.Participation)
}

func Test_RSVP_Table_Rejects_Second_Row_For_Same_Pair(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	userID, err := svc.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	first := models.RSVP{ID: "r-1", UserID: userID, EventUID: "evt-1", Participation: models.ParticipationIn, Timestamp: time.Now()}
	require.NoError(t, svc.DB.Create(&first).Error)

	// Act
	second := models.RSVP{ID: "r-2", UserID: userID, EventUID: "evt-1", Participation: models.ParticipationIn, Timestamp: time.Now()}
	err = svc.DB.Create(&second).Error

	// Assert
	require.Error(t, err)
	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), in)
	require.Equal(t, int64(0), out)
}

func Test_Toggle_Concurrent_First_Votes_Keep_One_Row(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	session := models.Session{Name: "Alice"}

	// Act
	var wg sync.WaitGroup
	for _, p := range []models.Participation{models.ParticipationIn, models.ParticipationOut} {
		wg.Add(1)
		go func(p models.Participation) {
			defer wg.Done()
			_, _ = svc.Toggle(ctx, session, "evt-1", p)
		}(p)
	}
	wg.Wait()

	// Assert
	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), in+out)
}

func Test_SetRSVP_Rejects_Unknown_Participation(t *testing.T) {
	svc := newTestRSVPService(t)

	_, err := svc.SetRSVP(context.Background(), "u-1", "evt-1", models.Participation("Maybe"))

	require.ErrorIs(t, err, ErrInvalidInput)
}

func Test_Counts_With_No_Rows(t *testing.T) {
	svc := newTestRSVPService(t)

	in, out, err := svc.Counts(context.Background(), "evt-empty")

	require.NoError(t, err)
	require.Zero(t, in)
	require.Zero(t, out)
}

func Test_ListForEvent_Orders_By_Vote_Time(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	for _, vote := range []struct {
		name string
		p    models.Participation
	}{
		{"Carol", models.ParticipationIn},
		{"alice", models.ParticipationOut},
		{"Bob", models.ParticipationIn},
	} {
		userID, err := svc.GetOrCreateUser(ctx, vote.name)
		require.NoError(t, err)
		_, err = svc.SetRSVP(ctx, userID, "evt-1", vote.p)
		require.NoError(t, err)
	}

	// Act
	attendees, err := svc.ListForEvent(ctx, "evt-1")

	// Assert
	require.NoError(t, err)
	require.Len(t, attendees, 3)
	require.Equal(t, "carol", attendees[0].Name)
	require.Equal(t, "alice", attendees[1].Name)
	require.Equal(t, models.ParticipationOut, attendees[1].Participation)
	require.Equal(t, "bob", attendees[2].Name)
	require.True(t, attendees[0].RSVPedAt.Before(attendees[2].RSVPedAt))

	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(2), in)
	require.Equal(t, int64(1), out)
}

func Test_ClearRSVP_Deletes_By_ID(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	userID, err := svc.GetOrCreateUser(ctx, "alice")
	require.NoError(t, err)
	rsvp, err := svc.SetRSVP(ctx, userID, "evt-1", models.ParticipationIn)
	require.NoError(t, err)

	// Act
	require.NoError(t, svc.ClearRSVP(ctx, rsvp.ID))
	require.NoError(t, svc.ClearRSVP(ctx, rsvp.ID))

	// Assert
	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Zero(t, in+out)
}

func Test_ClearOwnRSVP_Only_Deletes_Callers_Vote(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	vote, err := svc.Toggle(ctx, models.Session{Name: "Alice"}, "evt-1", models.ParticipationIn)
	require.NoError(t, err)

	// Act
	otherErr := svc.ClearOwnRSVP(ctx, "bob", vote.ID)
	ownErr := svc.ClearOwnRSVP(ctx, "ALICE", vote.ID)
	againErr := svc.ClearOwnRSVP(ctx, "alice", vote.ID)

	// Assert
	require.ErrorIs(t, otherErr, ErrForbidden)
	require.NoError(t, ownErr)
	require.NoError(t, againErr)

	in, _, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), in)
}

func Test_ForUser_Matches_Any_Case(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	alice, err := svc.GetOrCreateUser(ctx, "Alice")
	require.NoError(t, err)
	bob, err := svc.GetOrCreateUser(ctx, "Bob")
	require.NoError(t, err)
	_, err = svc.SetRSVP(ctx, alice, "evt-1", models.ParticipationIn)
	require.NoError(t, err)
	_, err = svc.SetRSVP(ctx, alice, "evt-2", models.ParticipationOut)
	require.NoError(t, err)
	_, err = svc.SetRSVP(ctx, bob, "evt-1", models.ParticipationIn)
	require.NoError(t, err)

	// Act
	rsvps, err := svc.ForUser(ctx, "aLiCe")

	// Assert
	require.NoError(t, err)
	require.Len(t, rsvps, 2)
	require.Equal(t, "evt-1", rsvps[0].EventUID)
	require.Equal(t, "evt-2", rsvps[1].EventUID)

	none, err := svc.ForUser(ctx, "nobody")
	require.NoError(t, err)
	require.Empty(t, none)
}

func Test_Toggle_Sets_Switches_And_Withdraws(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	session := models.Session{Name: "Alice"}

	// Act + Assert: first press sets
	current, err := svc.Toggle(ctx, session, "evt-1", models.ParticipationIn)
	require.NoError(t, err)
	require.NotNil(t, current)
	require.Equal(t, models.ParticipationIn, current.Participation)

	// pressing the other button switches
	current, err = svc.Toggle(ctx, session, "evt-1", models.ParticipationOut)
	require.NoError(t, err)
	require.Equal(t, models.ParticipationOut, current.Participation)

	in, out, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(0), in)
	require.Equal(t, int64(1), out)

	// pressing the same button again withdraws
	current, err = svc.Toggle(ctx, models.Session{Name: "ALICE"}, "evt-1", models.ParticipationOut)
	require.NoError(t, err)
	require.Nil(t, current)

	existing, err := svc.UserRSVPForEvent(ctx, "alice", "evt-1")
	require.NoError(t, err)
	require.Nil(t, existing)
}

func Test_Toggle_Requires_Named_Session(t *testing.T) {
	svc := newTestRSVPService(t)

	_, err := svc.Toggle(context.Background(), models.Session{}, "evt-1", models.ParticipationIn)

	require.ErrorIs(t, err, ErrInvalidInput)
}

func Test_ClearAllForUser_Leaves_Other_Users(t *testing.T) {
	// Arrange
	ctx := context.Background()
	svc := newTestRSVPService(t)
	_, err := svc.Toggle(ctx, models.Session{Name: "alice"}, "evt-1", models.ParticipationIn)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, models.Session{Name: "alice"}, "evt-2", models.ParticipationIn)
	require.NoError(t, err)
	_, err = svc.Toggle(ctx, models.Session{Name: "bob"}, "evt-1", models.ParticipationIn)
	require.NoError(t, err)

	// Act
	removed, err := svc.ClearAllForUser(ctx, "Alice")

	// Assert
	require.NoError(t, err)
	require.Equal(t, int64(2), removed)
	in, _, err := svc.Counts(ctx, "evt-1")
	require.NoError(t, err)
	require.Equal(t, int64(1), in)
}
