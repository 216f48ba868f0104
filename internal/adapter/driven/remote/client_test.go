package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/collegedesk/internal/domain/model"
	"github.com/ericfisherdev/collegedesk/internal/domain/port/driven"
)

const (
	testBaseURL = "https://db.example.test"
	testAPIKey  = "anon-key"
)

// setupMockClient returns a Client wired to a fresh mock transport.
func setupMockClient(t *testing.T) (*Client, *httpmock.MockTransport) {
	t.Helper()

	mock := httpmock.NewMockTransport()
	client, err := NewClientWithHTTPClient(&http.Client{Transport: mock}, testBaseURL+"/", testAPIKey, nil)
	require.NoError(t, err)
	return client, mock
}

func endpoint(table string) string {
	return testBaseURL + "/rest/v1/" + table
}

func TestNewClient_RejectsRelativeURL(t *testing.T) {
	_, err := NewClient("db.example.test", testAPIKey, nil)
	assert.Error(t, err)
}

func TestClient_SendsAuthHeaders(t *testing.T) {
	client, mock := setupMockClient(t)

	mock.RegisterResponder(http.MethodGet, endpoint(profilesTable),
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, testAPIKey, req.Header.Get("apikey"))
			assert.Equal(t, "Bearer "+testAPIKey, req.Header.Get("Authorization"))
			return httpmock.NewStringResponse(http.StatusOK, `[]`), nil
		})

	_, err := NewProfileRepo(client).GetProfile(context.Background(), "u1")
	assert.ErrorIs(t, err, driven.ErrNotFound)
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

func TestClient_StatusErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{name: "unique violation", status: http.StatusConflict, body: `{"code":"23505","message":"duplicate key"}`, wantErr: driven.ErrAlreadyExists},
		{name: "foreign key violation", status: http.StatusConflict, body: `{"code":"23503","message":"violates foreign key"}`, wantErr: driven.ErrNotFound},
		{name: "not found", status: http.StatusNotFound, body: `{}`, wantErr: driven.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, mock := setupMockClient(t)
			mock.RegisterResponder(http.MethodPost, endpoint(savedTable),
				httpmock.NewStringResponder(tt.status, tt.body))

			err := NewSavedRepo(client).Save(context.Background(), model.SavedCollege{
				ID: "s1", UserID: "u1", CollegeID: "c1", SavedAt: time.Now(),
			}, model.Unbounded)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestClient_ServerError(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponder(http.MethodGet, endpoint(reviewsTable),
		httpmock.NewStringResponder(http.StatusInternalServerError, `{"message":"boom"}`))

	_, err := NewReviewRepo(client).List(context.Background(), driven.ReviewFilter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
	assert.Contains(t, err.Error(), "boom")
	assert.NotErrorIs(t, err, driven.ErrNotFound)
}

func TestReviewRepo_List_QueryAndNormalisation(t *testing.T) {
	client, mock := setupMockClient(t)

	query := url.Values{
		"select":  {"*"},
		"order":   {reviewsOrder},
		"or":      {"(status.eq.pending,status.is.null)"},
		"user_id": {"eq.u1"},
		"limit":   {"10"},
		"offset":  {"20"},
	}
	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(reviewsTable), query,
		httpmock.NewStringResponder(http.StatusOK, `[
			{"id":"r1","college_id":"c1","user_id":"u1","title":"Ok","body":null,"rating":3,
			 "helpful":null,"status":null,"created_at":"2026-03-14T10:00:00Z","updated_at":"2026-03-14T10:00:00Z"},
			{"id":"r2","college_id":"c1","user_id":"u1","title":"Good","body":"Plenty to say about this place.","rating":5,
			 "helpful":-4,"status":"pending","created_at":"2026-03-14T09:00:00Z","updated_at":"2026-03-14T09:00:00Z"}
		]`))

	got, err := NewReviewRepo(client).List(context.Background(), driven.ReviewFilter{
		Status: model.ModerationPending, UserID: "u1", Limit: 10, Offset: 20,
	})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Empty(t, got[0].Body)
	assert.Zero(t, got[0].Helpful)
	assert.Equal(t, model.ModerationPending, got[0].Status)
	assert.Equal(t, time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC), got[0].CreatedAt.UTC())

	assert.Equal(t, -4, got[1].Helpful)
	assert.Equal(t, "Plenty to say about this place.", got[1].Body)
}

func TestReviewRepo_List_RejectsUnknownStatus(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponder(http.MethodGet, endpoint(reviewsTable),
		httpmock.NewStringResponder(http.StatusOK, `[{"id":"r1","status":"archived","rating":3,
			"created_at":"2026-03-14T10:00:00Z","updated_at":"2026-03-14T10:00:00Z"}]`))

	_, err := NewReviewRepo(client).List(context.Background(), driven.ReviewFilter{})
	assert.ErrorIs(t, err, model.ErrInvalidStatus)
}

func TestReviewRepo_ListByUserSince(t *testing.T) {
	client, mock := setupMockClient(t)

	since := time.Date(2026, 3, 13, 12, 0, 0, 0, time.UTC)
	query := url.Values{
		"select":     {"*"},
		"user_id":    {"eq.u1"},
		"created_at": {"gte.2026-03-13T12:00:00Z"},
		"order":      {reviewsOrder},
	}
	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(reviewsTable), query,
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	got, err := NewReviewRepo(client).ListByUserSince(context.Background(), "u1", since)
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 1, mock.GetTotalCallCount())
}

// countResponder answers a count=exact request with an empty page and the
// given total in Content-Range.
func countResponder(t *testing.T, total int) httpmock.Responder {
	return func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "count=exact", req.Header.Get("Prefer"))
		assert.Equal(t, "0", req.URL.Query().Get("limit"))
		resp := httpmock.NewStringResponse(http.StatusOK, `[]`)
		resp.Header.Set("Content-Range", "*/"+strconv.Itoa(total))
		return resp, nil
	}
}

func TestReviewRepo_CountByStatus(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(reviewsTable),
		url.Values{"select": {"id"}, "limit": {"0"}, "or": {"(status.eq.pending,status.is.null)"}},
		countResponder(t, 2))
	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(reviewsTable),
		url.Values{"select": {"id"}, "limit": {"0"}, "status": {"eq.visible"}},
		countResponder(t, 1250))
	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(reviewsTable),
		url.Values{"select": {"id"}, "limit": {"0"}, "status": {"eq.hidden"}},
		countResponder(t, 0))

	got, err := NewReviewRepo(client).CountByStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[model.ModerationStatus]int{
		model.ModerationPending: 2,
		model.ModerationVisible: 1250,
	}, got)
	assert.Equal(t, 3, mock.GetTotalCallCount())
}

func TestReviewRepo_CountByStatus_MissingContentRange(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponder(http.MethodGet, endpoint(reviewsTable),
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	_, err := NewReviewRepo(client).CountByStatus(context.Background())
	assert.ErrorContains(t, err, "content range")
}

func TestParseContentRangeTotal(t *testing.T) {
	n, err := parseContentRangeTotal("0-24/3573")
	require.NoError(t, err)
	assert.Equal(t, 3573, n)

	n, err = parseContentRangeTotal("*/0")
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = parseContentRangeTotal("0-24/*")
	assert.Error(t, err)
}

func TestReviewRepo_UpdateStatus(t *testing.T) {
	client, mock := setupMockClient(t)
	repo := NewReviewRepo(client)

	mock.RegisterResponderWithQuery(http.MethodPatch, endpoint(reviewsTable), "id=eq.r1",
		func(req *http.Request) (*http.Response, error) {
			assert.Equal(t, "return=representation", req.Header.Get("Prefer"))
			return httpmock.NewStringResponse(http.StatusOK, `[{"id":"r1"}]`), nil
		})
	mock.RegisterResponderWithQuery(http.MethodPatch, endpoint(reviewsTable), "id=eq.missing",
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	require.NoError(t, repo.UpdateStatus(context.Background(), "r1", model.ModerationHidden))
	assert.ErrorIs(t, repo.UpdateStatus(context.Background(), "missing", model.ModerationHidden), driven.ErrNotFound)
}

func TestReviewRepo_AddHelpful(t *testing.T) {
	client, mock := setupMockClient(t)
	repo := NewReviewRepo(client)

	mock.RegisterResponder(http.MethodPost, endpoint("rpc/add_review_helpful"),
		func(req *http.Request) (*http.Response, error) {
			var args struct {
				ReviewID string `json:"review_id"`
				Delta    int    `json:"delta"`
			}
			if err := json.NewDecoder(req.Body).Decode(&args); err != nil {
				return nil, err
			}
			if args.ReviewID != "r1" {
				return httpmock.NewStringResponse(http.StatusOK, `null`), nil
			}
			return httpmock.NewStringResponse(http.StatusOK, `-2`), nil
		})

	require.NoError(t, repo.AddHelpful(context.Background(), "r1", -1))
	assert.ErrorIs(t, repo.AddHelpful(context.Background(), "nope", 1), driven.ErrNotFound)
}

func TestReviewRepo_Delete_NotFound(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponder(http.MethodDelete, endpoint(reviewsTable),
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	err := NewReviewRepo(client).Delete(context.Background(), "r1")
	assert.ErrorIs(t, err, driven.ErrNotFound)
}

func TestCollegeRepo_GetByID_EmbedsCutoffs(t *testing.T) {
	client, mock := setupMockClient(t)

	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(collegesTable),
		url.Values{"select": {collegeSelect}, "id": {"eq.iitb"}},
		httpmock.NewStringResponder(http.StatusOK, `[{
			"id":"iitb","name":"IIT Bombay","city":"Mumbai","state":"Maharashtra",
			"updated_at":"2026-01-01T00:00:00Z",
			"cutoffs":[
				{"id":1,"college_id":"iitb","exam":"jee_advanced","min_score":null,"max_rank":70},
				{"id":2,"college_id":"iitb","exam":"gate","min_score":750,"max_rank":null}
			]
		}]`))

	got, err := NewCollegeRepo(client).GetByID(context.Background(), "iitb")
	require.NoError(t, err)
	assert.Equal(t, "IIT Bombay", got.Name)
	require.Len(t, got.Cutoffs, 2)

	assert.Nil(t, got.Cutoffs[0].MinScore)
	require.NotNil(t, got.Cutoffs[0].MaxRank)
	assert.InDelta(t, 70.0, *got.Cutoffs[0].MaxRank, 0.0001)

	require.NotNil(t, got.Cutoffs[1].MinScore)
	assert.InDelta(t, 750.0, *got.Cutoffs[1].MinScore, 0.0001)
	assert.Equal(t, "iitb", got.Cutoffs[1].CollegeID)
}

func TestCollegeRepo_Upsert_ReplacesCutoffs(t *testing.T) {
	client, mock := setupMockClient(t)

	mock.RegisterResponder(http.MethodPost, endpoint(collegesTable),
		func(req *http.Request) (*http.Response, error) {
			assert.Contains(t, req.Header.Get("Prefer"), "resolution=merge-duplicates")
			return httpmock.NewStringResponse(http.StatusCreated, ``), nil
		})
	mock.RegisterResponderWithQuery(http.MethodDelete, endpoint(cutoffsTable), "college_id=eq.coep",
		httpmock.NewStringResponder(http.StatusNoContent, ``))
	mock.RegisterResponder(http.MethodPost, endpoint(cutoffsTable),
		func(req *http.Request) (*http.Response, error) {
			var rows []cutoffRow
			if err := json.NewDecoder(req.Body).Decode(&rows); err != nil {
				return nil, err
			}
			assert.Len(t, rows, 1)
			assert.Equal(t, "coep", rows[0].CollegeID)
			return httpmock.NewStringResponse(http.StatusCreated, ``), nil
		})

	minScore := 95.0
	err := NewCollegeRepo(client).Upsert(context.Background(), model.College{
		ID: "coep", Name: "COEP",
		Cutoffs: []model.Cutoff{{Exam: "jee_main", MinScore: &minScore}},
	})
	require.NoError(t, err)
	assert.Equal(t, 3, mock.GetTotalCallCount())
}

func TestProfileRepo_GetProfile_NullTier(t *testing.T) {
	client, mock := setupMockClient(t)
	mock.RegisterResponder(http.MethodGet, endpoint(profilesTable),
		httpmock.NewStringResponder(http.StatusOK,
			`[{"user_id":"u1","display_name":"Asha","tier":null,"is_admin":false,"updated_at":"2026-01-01T00:00:00Z"}]`))

	got, err := NewProfileRepo(client).GetProfile(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "Asha", got.DisplayName)
	assert.Empty(t, got.Tier)
}

func TestSavedRepo_CountAndRemove(t *testing.T) {
	client, mock := setupMockClient(t)
	repo := NewSavedRepo(client)

	mock.RegisterResponderWithQuery(http.MethodGet, endpoint(savedTable),
		url.Values{"select": {"id"}, "limit": {"0"}, "user_id": {"eq.u1"}},
		countResponder(t, 2))
	mock.RegisterResponder(http.MethodDelete, endpoint(savedTable),
		httpmock.NewStringResponder(http.StatusOK, `[]`))

	n, err := repo.CountByUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.ErrorIs(t, repo.Remove(context.Background(), "u1", "c1"), driven.ErrNotFound)
}

func TestSavedRepo_Save_Ceiling(t *testing.T) {
	saved := model.SavedCollege{ID: "s3", UserID: "u1", CollegeID: "c3", SavedAt: time.Now()}

	t.Run("full before insert", func(t *testing.T) {
		client, mock := setupMockClient(t)
		mock.RegisterResponder(http.MethodGet, endpoint(savedTable), countResponder(t, 2))

		err := NewSavedRepo(client).Save(context.Background(), saved, model.Limit(2))
		assert.ErrorIs(t, err, driven.ErrSavedLimitReached)
		assert.Equal(t, 1, mock.GetTotalCallCount())
	})

	t.Run("concurrent save overshoots and is rolled back", func(t *testing.T) {
		client, mock := setupMockClient(t)
		counts := []int{1, 3}
		mock.RegisterResponder(http.MethodGet, endpoint(savedTable),
			func(req *http.Request) (*http.Response, error) {
				total := counts[0]
				counts = counts[1:]
				return countResponder(t, total)(req)
			})
		mock.RegisterResponder(http.MethodPost, endpoint(savedTable),
			httpmock.NewStringResponder(http.StatusCreated, ``))
		mock.RegisterResponderWithQuery(http.MethodDelete, endpoint(savedTable), "id=eq.s3",
			httpmock.NewStringResponder(http.StatusNoContent, ``))

		err := NewSavedRepo(client).Save(context.Background(), saved, model.Limit(2))
		assert.ErrorIs(t, err, driven.ErrSavedLimitReached)
		// count, insert, count, delete
		assert.Equal(t, 4, mock.GetTotalCallCount())
	})

	t.Run("within ceiling", func(t *testing.T) {
		client, mock := setupMockClient(t)
		counts := []int{1, 2}
		mock.RegisterResponder(http.MethodGet, endpoint(savedTable),
			func(req *http.Request) (*http.Response, error) {
				total := counts[0]
				counts = counts[1:]
				return countResponder(t, total)(req)
			})
		mock.RegisterResponder(http.MethodPost, endpoint(savedTable),
			httpmock.NewStringResponder(http.StatusCreated, ``))

		require.NoError(t, NewSavedRepo(client).Save(context.Background(), saved, model.Limit(2)))
		assert.Equal(t, 3, mock.GetTotalCallCount())
	})
}
