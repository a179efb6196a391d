package api

import (
	"context"
	"errors"
	"net/http"

	"lawchat-backend/internal/chat"
	"lawchat-backend/internal/database"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MemberIDHeader carries the caller identity resolved by the session layer
// in front of this service. Session issuance itself lives outside this
// backend; here the id only needs to resolve to an existing member.
const MemberIDHeader = "X-Member-Id"

type memberCtxKey struct{}

func MemberAuth(db *gorm.DB) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get(MemberIDHeader)
			if raw == "" {
				http.Error(w, "missing member identity", http.StatusUnauthorized)
				return
			}

			memberId, err := uuid.Parse(raw)
			if err != nil {
				http.Error(w, "invalid member identity", http.StatusUnauthorized)
				return
			}

			member, err := chat.GetMember(r.Context(), db, memberId)
			if errors.Is(err, chat.ErrMemberNotFound) {
				http.Error(w, "member not found", http.StatusNotFound)
				return
			}
			if err != nil {
				http.Error(w, "error resolving member", http.StatusInternalServerError)
				return
			}

			ctx := context.WithValue(r.Context(), memberCtxKey{}, member)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func MemberFromContext(ctx context.Context) (database.Member, error) {
	member, ok := ctx.Value(memberCtxKey{}).(database.Member)
	if !ok {
		return database.Member{}, CodedErrorf(http.StatusUnauthorized, "no member in request context")
	}
	return member, nil
}
