package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"tracker/src/api/controllers"
	"tracker/src/config"
	"tracker/src/database"
	"tracker/src/models"
	"tracker/src/notifications"
	"tracker/src/repositories"
	"tracker/src/utils"

	"github.com/go-chi/jwtauth"
	"github.com/sirupsen/logrus"
)

type Handler struct {
	TokenAuth *jwtauth.JWTAuth
	Logger    *logrus.Logger

	TransactionsController controllers.TransactionsControllerI
	FundsController        controllers.FundsControllerI
	PortfolioController    controllers.PortfolioControllerI
	UsersController        controllers.UsersControllerI

	dispatcher *notifications.Dispatcher
}

func NewHandler(cfg *config.Config) (*Handler, error) {
	db, err := database.SetupDB(cfg)
	if err != nil {
		return nil, err
	}

	logger := utils.NewLogger(cfg.Service.LogLevel)
	tokenAuth := jwtauth.New("HS256", []byte(cfg.Auth.Secret), nil)

	txManager := repositories.NewTxManager(db)
	accountRepo := repositories.NewAccountRepository(db)
	holdingRepo := repositories.NewHoldingRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	userRepo := repositories.NewUserRepository(db)

	mailer := notifications.NewSMTPMailer(cfg.SMTP)
	dispatcher := notifications.NewDispatcher(cfg.Notifications, mailer, logger)

	holdingsCache := utils.NewKeyedCache[uint, []models.Holding]()

	return &Handler{
		TokenAuth: tokenAuth,
		Logger:    logger,
		TransactionsController: controllers.NewTransactionsController(
			txManager, accountRepo, holdingRepo, transactionRepo, userRepo, dispatcher, holdingsCache),
		FundsController: controllers.NewFundsController(
			txManager, accountRepo, userRepo, dispatcher),
		PortfolioController: controllers.NewPortfolioController(
			holdingRepo, transactionRepo, holdingsCache,
			cfg.Pagination.PageSize, cfg.Pagination.MaxPageSize),
		UsersController: controllers.NewUsersController(
			txManager, userRepo, accountRepo, dispatcher, tokenAuth, cfg.Auth),
		dispatcher: dispatcher,
	}, nil
}

// Close drains the notification dispatcher.
func (h *Handler) Close() {
	if h.dispatcher != nil {
		h.dispatcher.Close()
	}
}

func (h *Handler) respond(w http.ResponseWriter, _ *http.Request, data interface{}, status int) {
	res, err := json.Marshal(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_, _ = w.Write(res)
}

func (h *Handler) HandleErrors(w http.ResponseWriter, err error) {
	var httpErr *utils.HTTPError
	if errors.Is(err, context.DeadlineExceeded) {
		h.respond(w, nil, map[string]string{"error": "Request timed out"}, http.StatusGatewayTimeout)
	} else if errors.Is(err, context.Canceled) {
		// Client went away; nobody reads this body, but the status should
		// not claim a server fault
		h.respond(w, nil, map[string]string{"error": "Request canceled"}, http.StatusRequestTimeout)
	} else if errors.As(err, &httpErr) {
		h.respond(w, nil, map[string]string{"error": httpErr.Message}, httpErr.Code)
	} else if err != nil {
		h.respond(w, nil, map[string]string{"error": err.Error()}, http.StatusInternalServerError)
	} else {
		h.respond(w, nil, map[string]string{"error": "Unhandled error"}, http.StatusInternalServerError)
	}
}

// requestContext derives the per-request context: a deadline, plus the
// configured logger for controllers to pull out via utils.LoggerFromContext.
func (h *Handler) requestContext(r *http.Request) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	return utils.WithLogger(ctx, h.Logger), cancel
}

// userIDFromRequest pulls the authenticated user out of the verified JWT.
func userIDFromRequest(r *http.Request) (uint, error) {
	_, claims, err := jwtauth.FromContext(r.Context())
	if err != nil {
		return 0, utils.Unauthorized("Invalid token")
	}
	raw, ok := claims["user_id"]
	if !ok {
		return 0, utils.Unauthorized("Token is missing user identity")
	}
	switch v := raw.(type) {
	case float64:
		return uint(v), nil
	case int64:
		return uint(v), nil
	case json.Number:
		id, err := v.Int64()
		if err != nil {
			return 0, utils.Unauthorized("Invalid user identity in token")
		}
		return uint(id), nil
	default:
		return 0, utils.Unauthorized("Invalid user identity in token")
	}
}

// pageParams reads page/page_size query params; controllers clamp the values.
func pageParams(r *http.Request) (page, pageSize int) {
	page, _ = strconv.Atoi(r.URL.Query().Get("page"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("page_size"))
	return page, pageSize
}

func Healthcheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("Alive"))
}
