package http

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"skillsync/backend/internal/config"
	"skillsync/backend/internal/domain/card"
	"skillsync/backend/internal/domain/chat"
	"skillsync/backend/internal/domain/session"
	"skillsync/backend/internal/domain/skill"
	"skillsync/backend/internal/domain/stats"
	"skillsync/backend/internal/domain/user"
	"skillsync/backend/internal/httpjson"
	"skillsync/backend/internal/middleware"
)

type RouterDeps struct {
	Cfg        config.Config
	AuthClient *auth.Client
	UserSvc    *user.Service
	SkillSvc   *skill.Service
	SkillRepo  *skill.Repo
	CardSvc    *card.Service
	ChatSvc    *chat.Service
	ChatRepo   *chat.Repo
	SessionSvc *session.Service
	StatsSvc   *stats.Service
	Log        *zap.Logger
}

func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.CORS(d.Cfg.AllowedOrigins))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httpjson.Write(w, 200, map[string]any{"ok": true, "ts": time.Now().UTC().Format(time.RFC3339)})
	})

	// Protected routes
	r.Group(func(pr chi.Router) {
		pr.Use(middleware.WithAuth(d.AuthClient))

		pr.Get("/v1/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			httpjson.Write(w, 200, map[string]any{
				"uid":    au.UID,
				"email":  au.Email,
				"claims": au.Claims,
			})
		})

		// ===== Profile routes =====
		pr.Post("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in user.RegisterInput
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}
			in.Trim()
			if in.Email == "" {
				in.Email = au.Email
			}

			out, err := d.UserSvc.Register(r.Context(), au.UID, in)
			if err != nil {
				status, msg := mapUserError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 201, out)
		})

		pr.Get("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.UserSvc.Get(r.Context(), au.UID)
			if err != nil {
				status, msg := mapUserError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Patch("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in user.UpdateInput
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}
			in.Trim()

			out, err := d.UserSvc.Update(r.Context(), au.UID, in)
			if err != nil {
				status, msg := mapUserError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Delete("/v1/users/me", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			if err := d.UserSvc.Delete(r.Context(), au.UID); err != nil {
				status, msg := mapUserError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{"deleted": true})
		})

		// ===== Skill routes =====
		pr.Get("/v1/users/me/skills", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			skillType := strings.TrimSpace(r.URL.Query().Get("type"))

			out, err := d.SkillSvc.List(r.Context(), au.UID, skillType)
			if err != nil {
				status, msg := mapSkillError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{
				"skills": out,
				"stale":  d.SkillSvc.Stale(r.Context(), au.UID),
			})
		})

		pr.Post("/v1/users/me/skills", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in skill.AddSkillInput
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}
			in.Trim()

			out, err := d.SkillSvc.Add(r.Context(), au.UID, in)
			if err != nil {
				status, msg := mapSkillError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 201, out)
		})

		pr.Delete("/v1/users/me/skills/{skillId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			skillId := chi.URLParam(r, "skillId")
			if skillId == "" {
				httpjson.Error(w, 400, "missing skillId")
				return
			}
			if err := d.SkillSvc.Delete(r.Context(), au.UID, skillId); err != nil {
				status, msg := mapSkillError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{"deleted": true})
		})

		// Live skill set, one event per snapshot.
		pr.Get("/v1/users/me/skills/watch", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			flusher, ok := w.(http.Flusher)
			if !ok {
				httpjson.Error(w, 500, "streaming unsupported")
				return
			}

			stream := d.SkillRepo.StreamSkills(r.Context(), au.UID, d.Log)
			defer stream.Stop()

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(200)
			flusher.Flush()

			for {
				select {
				case skills, open := <-stream.Skills:
					if !open {
						return
					}
					writeSSE(w, skills)
					flusher.Flush()
				case <-stream.Errs:
					return
				case <-r.Context().Done():
					return
				}
			}
		})

		pr.Post("/v1/users/me/skills/sync", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			d.SkillSvc.Sync(r.Context(), au.UID)
			httpjson.Write(w, 200, map[string]any{
				"stale": d.SkillSvc.Stale(r.Context(), au.UID),
			})
		})

		// ===== Teaching card routes =====
		// Accepts JSON with an optional base64 image, or multipart form data
		// with an "image" file part.
		pr.Post("/v1/cards", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var (
				input card.CreateCardInput
				img   *card.Image
			)
			if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data") {
				var err error
				input, img, err = readCardForm(r)
				if err != nil {
					httpjson.Error(w, 400, "invalid form payload")
					return
				}
			} else {
				var in createCardRequest
				if err := httpjson.Read(r, &in); err != nil {
					httpjson.Error(w, 400, "invalid json")
					return
				}
				var err error
				if img, err = in.image(); err != nil {
					httpjson.Error(w, 400, "invalid image payload")
					return
				}
				input = in.CreateCardInput
			}
			input.Trim()

			out, err := d.CardSvc.Create(r.Context(), au.UID, input, img)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 201, out)
		})

		pr.Get("/v1/cards", func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			in := card.ListCardsInput{
				Query:      strings.TrimSpace(q.Get("q")),
				Category:   strings.TrimSpace(q.Get("category")),
				MentorID:   strings.TrimSpace(q.Get("mentorId")),
				ActiveOnly: q.Get("all") != "true",
			}
			if v := q.Get("limit"); v != "" {
				n, err := strconv.ParseInt(v, 10, 64)
				if err != nil || n < 1 {
					httpjson.Error(w, 400, "invalid limit")
					return
				}
				in.Limit = n
			}

			out, err := d.CardSvc.List(r.Context(), in)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Get("/v1/cards/{cardId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")
			out, err := d.CardSvc.Get(r.Context(), au.UID, cardId)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Patch("/v1/cards/{cardId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")

			var in updateCardRequest
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}
			in.Trim()

			img, err := in.image()
			if err != nil {
				httpjson.Error(w, 400, "invalid image payload")
				return
			}

			out, err := d.CardSvc.Update(r.Context(), au.UID, cardId, in.UpdateCardInput, img)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Post("/v1/cards/{cardId}/deactivate", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")
			if err := d.CardSvc.Deactivate(r.Context(), au.UID, cardId); err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{"active": false})
		})

		pr.Delete("/v1/cards/{cardId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")
			if err := d.CardSvc.Delete(r.Context(), au.UID, cardId); err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{"deleted": true})
		})

		pr.Post("/v1/cards/{cardId}/enroll", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")
			out, err := d.CardSvc.Enroll(r.Context(), au.UID, cardId)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Post("/v1/cards/{cardId}/unenroll", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			cardId := chi.URLParam(r, "cardId")
			out, err := d.CardSvc.Unenroll(r.Context(), au.UID, cardId)
			if err != nil {
				status, msg := mapCardError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		// ===== Chat routes =====
		pr.Post("/v1/chats", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var in struct {
				OtherUID string `json:"otherUid"`
			}
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}

			out, err := d.ChatSvc.Open(r.Context(), au.UID, strings.TrimSpace(in.OtherUID))
			if err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Get("/v1/chats", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			out, err := d.ChatSvc.List(r.Context(), au.UID)
			if err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Get("/v1/chats/{chatId}/messages", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			chatId := chi.URLParam(r, "chatId")

			limit := 50
			if v := r.URL.Query().Get("limit"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 1 {
					httpjson.Error(w, 400, "invalid limit")
					return
				}
				limit = n
			}

			out, err := d.ChatSvc.Messages(r.Context(), au.UID, chatId, limit)
			if err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Post("/v1/chats/{chatId}/messages", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			chatId := chi.URLParam(r, "chatId")

			var in chat.SendMessageInput
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}

			out, err := d.ChatSvc.Send(r.Context(), au.UID, chatId, in)
			if err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 201, out)
		})

		// Live chat list, one event per snapshot.
		pr.Get("/v1/chats/watch", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			flusher, ok := w.(http.Flusher)
			if !ok {
				httpjson.Error(w, 500, "streaming unsupported")
				return
			}

			stream := d.ChatRepo.StreamChats(r.Context(), au.UID, d.Log)
			defer stream.Stop()

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(200)
			flusher.Flush()

			for {
				select {
				case chats, open := <-stream.Chats:
					if !open {
						return
					}
					writeSSE(w, chats)
					flusher.Flush()
				case <-stream.Errs:
					return
				case <-r.Context().Done():
					return
				}
			}
		})

		pr.Get("/v1/chats/{chatId}/messages/watch", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			chatId := chi.URLParam(r, "chatId")

			// Participant check before subscribing.
			if _, err := d.ChatSvc.Messages(r.Context(), au.UID, chatId, 1); err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}

			flusher, ok := w.(http.Flusher)
			if !ok {
				httpjson.Error(w, 500, "streaming unsupported")
				return
			}

			stream := d.ChatRepo.StreamMessages(r.Context(), chatId, d.Log)
			defer stream.Stop()

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(200)
			flusher.Flush()

			for {
				select {
				case msgs, open := <-stream.Messages:
					if !open {
						return
					}
					writeSSE(w, msgs)
					flusher.Flush()
				case <-stream.Errs:
					return
				case <-r.Context().Done():
					return
				}
			}
		})

		pr.Post("/v1/chats/{chatId}/read", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			chatId := chi.URLParam(r, "chatId")

			n, err := d.ChatSvc.MarkRead(r.Context(), au.UID, chatId)
			if err != nil {
				status, msg := mapChatError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, map[string]any{"markedRead": n})
		})

		// ===== Learning session routes =====
		pr.Post("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			if !middleware.CanMentor(au.Claims) {
				httpjson.Error(w, 403, "mentor role required")
				return
			}

			var in session.CreateSessionInput
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}
			in.Trim()

			out, err := d.SessionSvc.Create(r.Context(), au.UID, in)
			if err != nil {
				status, msg := mapSessionError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 201, out)
		})

		pr.Get("/v1/sessions", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			var (
				out []session.LearningSession
				err error
			)
			switch r.URL.Query().Get("as") {
			case "", "learner":
				out, err = d.SessionSvc.ListByLearner(r.Context(), au.UID)
			case "mentor":
				out, err = d.SessionSvc.ListByMentor(r.Context(), au.UID)
			default:
				httpjson.Error(w, 400, "as must be mentor or learner")
				return
			}
			if err != nil {
				status, msg := mapSessionError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Get("/v1/sessions/{sessionId}", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			sessionId := chi.URLParam(r, "sessionId")
			out, err := d.SessionSvc.Get(r.Context(), au.UID, sessionId)
			if err != nil {
				status, msg := mapSessionError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		pr.Post("/v1/sessions/{sessionId}/status", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())
			sessionId := chi.URLParam(r, "sessionId")

			var in struct {
				Status string `json:"status"`
			}
			if err := httpjson.Read(r, &in); err != nil {
				httpjson.Error(w, 400, "invalid json")
				return
			}

			out, err := d.SessionSvc.UpdateStatus(r.Context(), au.UID, sessionId, strings.TrimSpace(in.Status))
			if err != nil {
				status, msg := mapSessionError(err)
				httpjson.Error(w, status, msg)
				return
			}
			httpjson.Write(w, 200, out)
		})

		// ===== Live counters (SSE) =====
		pr.Get("/v1/stats/watch", func(w http.ResponseWriter, r *http.Request) {
			au, _ := middleware.GetAuthUser(r.Context())

			roleParam := r.URL.Query().Get("role")
			if roleParam == "" {
				roleParam = middleware.ClaimRole(au.Claims)
			}
			role, err := stats.ParseRole(roleParam)
			if err != nil {
				httpjson.Error(w, 400, err.Error())
				return
			}

			flusher, ok := w.(http.Flusher)
			if !ok {
				httpjson.Error(w, 500, "streaming unsupported")
				return
			}

			watcher, err := d.StatsSvc.Watch(r.Context(), au.UID, role)
			if err != nil {
				httpjson.Error(w, 400, err.Error())
				return
			}
			defer watcher.Stop()

			w.Header().Set("Content-Type", "text/event-stream")
			w.Header().Set("Cache-Control", "no-cache")
			w.WriteHeader(200)
			flusher.Flush()

			for {
				select {
				case c := <-watcher.Counts():
					writeSSE(w, c)
					flusher.Flush()
				case <-r.Context().Done():
					return
				}
			}
		})
	})

	return r
}

func mapUserError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case user.IsErrNotFound(err):
		return 404, err.Error()
	case user.IsErrBadRequest(err):
		return 400, err.Error()
	case errors.Is(err, user.ErrAlreadyExists):
		return 409, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapSkillError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case skill.IsErrNotFound(err):
		return 404, err.Error()
	case skill.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapCardError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case card.IsErrForbidden(err):
		return 403, err.Error()
	case card.IsErrNotFound(err):
		return 404, err.Error()
	case card.IsErrBadRequest(err):
		return 400, err.Error()
	case errors.Is(err, card.ErrCardInactive),
		errors.Is(err, card.ErrAlreadyEnrolled),
		errors.Is(err, card.ErrNotEnrolled):
		return 409, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapChatError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case chat.IsErrNotParticipant(err):
		return 403, err.Error()
	case chat.IsErrNotFound(err):
		return 404, err.Error()
	case chat.IsErrBadRequest(err):
		return 400, err.Error()
	default:
		return 500, err.Error()
	}
}

func mapSessionError(err error) (int, string) {
	if err == nil {
		return 500, "unknown error"
	}
	switch {
	case session.IsErrForbidden(err):
		return 403, err.Error()
	case session.IsErrNotFound(err):
		return 404, err.Error()
	case session.IsErrBadRequest(err):
		return 400, err.Error()
	case errors.Is(err, session.ErrInvalidTransition):
		return 409, err.Error()
	default:
		return 500, err.Error()
	}
}

// createCardRequest is the card create payload with an optional inline image.
type createCardRequest struct {
	card.CreateCardInput
	ImageBase64      string `json:"imageBase64,omitempty"`
	ImageContentType string `json:"imageContentType,omitempty"`
}

func (in *createCardRequest) image() (*card.Image, error) {
	return decodeImage(in.ImageBase64, in.ImageContentType)
}

type updateCardRequest struct {
	card.UpdateCardInput
	ImageBase64      string `json:"imageBase64,omitempty"`
	ImageContentType string `json:"imageContentType,omitempty"`
}

func (in *updateCardRequest) image() (*card.Image, error) {
	return decodeImage(in.ImageBase64, in.ImageContentType)
}

func writeSSE(w http.ResponseWriter, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "data: %s\n\n", b)
}

func readCardForm(r *http.Request) (card.CreateCardInput, *card.Image, error) {
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		return card.CreateCardInput{}, nil, err
	}
	in := card.CreateCardInput{
		Title:           r.FormValue("title"),
		Description:     r.FormValue("description"),
		Category:        r.FormValue("category"),
		ExperienceLevel: r.FormValue("experienceLevel"),
		Availability:    r.FormValue("availability"),
	}

	file, hdr, err := r.FormFile("image")
	if err == http.ErrMissingFile {
		return in, nil, nil
	}
	if err != nil {
		return in, nil, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return in, nil, err
	}
	ct := hdr.Header.Get("Content-Type")
	if ct == "" {
		ct = http.DetectContentType(data)
	}
	return in, &card.Image{Data: data, ContentType: ct}, nil
}

func decodeImage(b64, contentType string) (*card.Image, error) {
	if b64 == "" {
		return nil, nil
	}
	data, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return &card.Image{Data: data, ContentType: contentType}, nil
}
