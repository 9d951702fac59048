package service

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"classboard/engine"
	"classboard/model"
	"classboard/natsclient"
	"classboard/repository"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap/zapcore"
)

const handlerTimeout = 10 * time.Second

// RegisterSubscriptions wires the service to its NATS surface: finalized
// submissions fan in through a queue group, leaderboard and stats queries
// answer over request-reply with the standard response envelope.
func (s *LeaderboardService) RegisterSubscriptions(nc *natsclient.NatsClient) error {
	_, err := nc.QueueSubscribe(s.Config.SubmissionSubject, "classboard-workers", func(msg *nats.Msg) {
		traceID := uuid.New().String()
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		var raw model.RawSubmission
		if err := json.Unmarshal(msg.Data, &raw); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Malformed submission event", map[string]any{
				"method":    "RegisterSubscriptions",
				"subject":   msg.Subject,
				"errorType": "UNMARSHAL_ERROR",
			}, "TRANSPORT", err)
			return
		}
		if _, err := s.ProcessSubmission(ctx, raw); err != nil {
			s.logger.Log(zapcore.ErrorLevel, traceID, "Submission processing failed", map[string]any{
				"method":    "RegisterSubscriptions",
				"subject":   msg.Subject,
				"errorType": "PROCESSING_ERROR",
			}, "TRANSPORT", err)
		}
	})
	if err != nil {
		return err
	}

	_, err = nc.Subscribe(s.Config.LeaderboardQuery, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		var req model.GetLeaderboardRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respond(msg, errorResponse(http.StatusBadRequest, "UNMARSHAL_ERROR", "malformed request", err))
			return
		}
		resp, err := s.GetLeaderboard(ctx, req)
		if err != nil {
			respond(msg, toErrorResponse(err))
			return
		}
		respond(msg, model.GenericResponse{Success: true, Status: http.StatusOK, Payload: resp})
	})
	if err != nil {
		return err
	}

	_, err = nc.Subscribe(s.Config.StatsQuery, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		var req model.GetStatsRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respond(msg, errorResponse(http.StatusBadRequest, "UNMARSHAL_ERROR", "malformed request", err))
			return
		}
		stats, err := s.GetAssignmentStats(ctx, req.AssignmentID)
		if err != nil {
			respond(msg, toErrorResponse(err))
			return
		}
		respond(msg, model.GenericResponse{Success: true, Status: http.StatusOK, Payload: stats})
	})
	if err != nil {
		return err
	}

	_, err = nc.Subscribe(s.Config.BadgeQuery, func(msg *nats.Msg) {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		defer cancel()

		var req model.GetBadgeRequest
		if err := json.Unmarshal(msg.Data, &req); err != nil {
			respond(msg, errorResponse(http.StatusBadRequest, "UNMARSHAL_ERROR", "malformed request", err))
			return
		}
		badge, err := s.GetBadge(ctx, req.Slug)
		if err != nil {
			respond(msg, toErrorResponse(err))
			return
		}
		respond(msg, model.GenericResponse{Success: true, Status: http.StatusOK, Payload: badge})
	})
	return err
}

func respond(msg *nats.Msg, resp model.GenericResponse) {
	if msg.Reply == "" {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = msg.Respond(data)
}

func errorResponse(code int, errorType, message string, err error) model.GenericResponse {
	info := &model.ErrorInfo{ErrorType: errorType, Code: code, Message: message}
	if err != nil {
		info.Details = err.Error()
	}
	return model.GenericResponse{Success: false, Status: code, Error: info}
}

func toErrorResponse(err error) model.GenericResponse {
	if engine.IsValidation(err) {
		return errorResponse(http.StatusBadRequest, "VALIDATION_ERROR", "invalid request", err)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return errorResponse(http.StatusNotFound, "NOT_FOUND", "document not found", err)
	}
	return errorResponse(http.StatusInternalServerError, "INTERNAL_ERROR", "request failed", err)
}
