package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"plateraffle/models"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type contextKey string

const (
	contextKeyRequestID contextKey = "requestID"
	contextKeyActor     contextKey = "actor"
)

// Trusted headers set by the school's reverse proxy after authentication.
// The API itself does not authenticate; it only enforces roles.
const (
	headerActorName = "X-Actor-Name"
	headerActorRole = "X-Actor-Role"
	headerRequestID = "X-Request-ID"
)

// statusRecorder captures the status code written by a handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// withRequestID assigns each request a UUID (or adopts the proxy's) and
// echoes it back in the response headers.
func withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get(headerRequestID)
		if requestID == "" {
			requestID = uuid.New().String()
		}
		w.Header().Set(headerRequestID, requestID)

		ctx := context.WithValue(r.Context(), contextKeyRequestID, requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// withAccessLog logs one line per request and records latency metrics
func withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(recorder, r)

		elapsed := time.Since(start)
		requestDuration.WithLabelValues(r.Method, strconv.Itoa(recorder.status)).Observe(elapsed.Seconds())

		log.WithFields(log.Fields{
			"requestID": requestID(r.Context()),
			"method":    r.Method,
			"path":      r.URL.Path,
			"status":    recorder.status,
			"duration":  elapsed.String(),
		}).Info("Request handled")
	})
}

// withActor resolves the acting user from the trusted proxy headers
func withActor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor := models.Actor{
			Name: r.Header.Get(headerActorName),
			Role: models.Role(r.Header.Get(headerActorRole)),
		}
		ctx := context.WithValue(r.Context(), contextKeyActor, actor)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(contextKeyRequestID).(string)
	return id
}

func actorFromContext(ctx context.Context) models.Actor {
	actor, _ := ctx.Value(contextKeyActor).(models.Actor)
	return actor
}
