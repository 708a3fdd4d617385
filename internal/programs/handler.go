package programs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/periolifts/periolifts/internal/apperrors"
	"github.com/periolifts/periolifts/internal/telemetry/tracing"
	"github.com/periolifts/periolifts/internal/workouts"
	"github.com/periolifts/periolifts/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type handlerRepo interface {
	Add(ctx context.Context, program Program) (*Program, error)
	Get(ctx context.Context, id int) (*Program, error)
	Update(ctx context.Context, program *Program) error
	Delete(ctx context.Context, id int) error
	ListAll(ctx context.Context, userID string) ([]Program, error)
}

type instantiator interface {
	Instantiate(ctx context.Context, programID int, startDate time.Time) ([]workouts.Workout, error)
}

type DeleteProgramResponse struct {
	DeletedID int `json:"deletedId"`
}

type UpdateProgramResponse struct {
	UpdatedID int `json:"updatedId"`
}

type ListProgramsResponse struct {
	Programs []Program `json:"programs"`
}

type InstantiateRequest struct {
	StartDate time.Time `json:"startDate"`
}

type InstantiateResponse struct {
	ProgramID int                `json:"programId"`
	Workouts  []workouts.Workout `json:"workouts"`
}

type Handler struct {
	repo    handlerRepo
	service instantiator
}

func NewHandler(repo handlerRepo, service instantiator) *Handler {
	return &Handler{
		repo:    repo,
		service: service,
	}
}

func (handler *Handler) SetupRoutes(router *mux.Router) {
	router.HandleFunc("/programs", handler.HandleAdd).Methods("POST", "OPTIONS").Name("new-program")
	router.HandleFunc("/programs", handler.HandleUpdate).Methods("PUT", "OPTIONS").Name("update-program")
	router.HandleFunc("/programs", handler.HandleList).Methods("GET", "OPTIONS").Name("list-programs")
	router.HandleFunc("/programs/{id}", handler.HandleGet).Methods("GET", "OPTIONS").Name("get-program")
	router.HandleFunc("/programs/{id}", handler.HandleDelete).Methods("DELETE", "OPTIONS").Name("delete-program")
	router.HandleFunc("/programs/{id}/instantiate", handler.HandleInstantiate).Methods("POST", "OPTIONS").Name("instantiate-program")
}

func (handler *Handler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.new")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var program Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		log.Tracef("new program, unmarshal json params: %s", err)
		http.Error(w, "add program failed", http.StatusBadRequest)
		return
	}
	if program.CreatedAt.IsZero() {
		program.CreatedAt = time.Now()
	}

	addedProgram, err := handler.repo.Add(ctx, program)
	if err != nil {
		log.Errorf("failed to add new program [%s] for user [%s]: %s", program.Name, program.UserID, err)
		http.Error(w, "error, failed to add new program", apperrors.HTTPStatus(err))
		return
	}

	programJson, err := json.Marshal(addedProgram)
	if err != nil {
		log.Errorf("failed to marshal new program: %s", err)
		http.Error(w, "error, failed to add new program", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, programJson, http.StatusCreated)
}

func (handler *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.update")
	defer span.End()

	if r.Header.Get("Content-Type") != "application/json" {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var program Program
	if err := json.NewDecoder(r.Body).Decode(&program); err != nil {
		log.Tracef("update program, unmarshal json params: %s", err)
		http.Error(w, "update program failed", http.StatusBadRequest)
		return
	}
	if program.ID <= 0 {
		http.Error(w, "invalid program id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Update(ctx, &program); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to update program [%d], [%s]: %s", program.ID, program.Name, err)
		http.Error(w, "error, failed to update program", apperrors.HTTPStatus(err))
		return
	}

	updateRespJson, err := json.Marshal(UpdateProgramResponse{UpdatedID: program.ID})
	if err != nil {
		log.Errorf("failed to marshal update response: %s", err)
		http.Error(w, "failed to marshal update response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, updateRespJson, http.StatusOK)
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.get")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid program id", http.StatusBadRequest)
		return
	}

	program, err := handler.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to get program %d: %s", id, err)
		http.Error(w, "failed to get program", apperrors.HTTPStatus(err))
		return
	}

	programJson, err := json.Marshal(program)
	if err != nil {
		log.Errorf("failed to marshal program: %s", err)
		http.Error(w, "failed to marshal program", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, programJson, http.StatusOK)
}

func (handler *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.delete")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid program id", http.StatusBadRequest)
		return
	}

	if err := handler.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to delete program %d: %s", id, err)
		http.Error(w, "failed to delete program", apperrors.HTTPStatus(err))
		return
	}

	deleteRespJson, err := json.Marshal(DeleteProgramResponse{DeletedID: id})
	if err != nil {
		log.Errorf("failed to marshal delete response: %s", err)
		http.Error(w, "failed to marshal delete response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, deleteRespJson, http.StatusOK)
}

func (handler *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.list")
	defer span.End()

	programs, err := handler.repo.ListAll(ctx, r.URL.Query().Get("user"))
	if err != nil {
		log.Errorf("list programs error: %s", err)
		http.Error(w, "failed to get programs", apperrors.HTTPStatus(err))
		return
	}

	listRespJson, err := json.Marshal(ListProgramsResponse{Programs: programs})
	if err != nil {
		log.Errorf("marshal programs error: %s", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, listRespJson, http.StatusOK)
}

func (handler *Handler) HandleInstantiate(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.programs.instantiate")
	defer span.End()

	id, err := strconv.Atoi(mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "invalid program id", http.StatusBadRequest)
		return
	}

	var instantiateReq InstantiateRequest
	if err := json.NewDecoder(r.Body).Decode(&instantiateReq); err != nil {
		log.Tracef("instantiate program, unmarshal json params: %s", err)
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if instantiateReq.StartDate.IsZero() {
		instantiateReq.StartDate = time.Now()
	}

	createdWorkouts, err := handler.service.Instantiate(ctx, id, instantiateReq.StartDate)
	if err != nil {
		if errors.Is(err, ErrProgramNotFound) {
			http.Error(w, "program not found", http.StatusNotFound)
			return
		}
		log.Errorf("failed to instantiate program %d: %s", id, err)
		http.Error(w, "failed to instantiate program", apperrors.HTTPStatus(err))
		return
	}

	instantiateRespJson, err := json.Marshal(InstantiateResponse{
		ProgramID: id,
		Workouts:  createdWorkouts,
	})
	if err != nil {
		log.Errorf("failed to marshal instantiate response: %s", err)
		http.Error(w, "failed to marshal instantiate response", http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, instantiateRespJson, http.StatusCreated)
}
