package locationiq

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestClient_GetAddress(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		want    string
		wantErr error
	}{
		{name: "ok", status: http.StatusOK, body: `{"display_name":"Times Square, New York"}`, want: "Times Square, New York"},
		{name: "not found", status: http.StatusNotFound, body: `{"error":"Unable to geocode"}`, wantErr: ErrAddressNotFound},
		{name: "empty name", status: http.StatusOK, body: `{}`, wantErr: ErrAddressNotFound},
		{name: "server error", status: http.StatusInternalServerError, body: `oops`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotQuery map[string]string
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				q := r.URL.Query()
				gotQuery = map[string]string{"path": r.URL.Path, "key": q.Get("key"), "lat": q.Get("lat"), "lon": q.Get("lon")}
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := New("test-key", srv.URL, time.Second)
			got, err := c.GetAddress(context.Background(), -73.9851, 40.7589)

			if gotQuery["path"] != "/v1/reverse" || gotQuery["key"] != "test-key" ||
				gotQuery["lat"] != "40.758900" || gotQuery["lon"] != "-73.985100" {
				t.Errorf("unexpected request: %v", gotQuery)
			}

			switch {
			case tt.status == http.StatusInternalServerError:
				if err == nil {
					t.Fatal("expected error for 500 response")
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
			default:
				if err != nil {
					t.Fatalf("GetAddress: %v", err)
				}
				if got != tt.want {
					t.Errorf("address = %q, want %q", got, tt.want)
				}
			}
		})
	}
}
