package main

import (
	"flag"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/shrimpsizemoose/trekker/logger"

	"github.com/ahmedhadihasan/iqraaexam/internal/app"
	"github.com/ahmedhadihasan/iqraaexam/internal/handlers"
)

func main() {
	var configPath = flag.String("config", "config.toml", "Path to config file")
	flag.Parse()

	service, err := app.NewService(*configPath)
	if err != nil {
		logger.Error.Fatalf("Failed to load config: %v", err)
	}
	defer service.Close()

	rosterHandler := handlers.NewRosterHandler(service)
	catalogHandler := handlers.NewCatalogHandler(service)
	assignmentHandler := handlers.NewAssignmentHandler(service)
	gradeHandler := handlers.NewGradeHandler(service)
	reportHandler := handlers.NewReportHandler(service)

	http.HandleFunc("POST /api/v1/students", rosterHandler.HandleCreate)
	http.HandleFunc("GET /api/v1/students", rosterHandler.HandleList)
	http.HandleFunc("GET /api/v1/students/{id}", rosterHandler.HandleGet)
	http.HandleFunc("PUT /api/v1/students/{id}", rosterHandler.HandleUpdate)
	http.HandleFunc("DELETE /api/v1/students/{id}", rosterHandler.HandleDelete)
	http.HandleFunc("DELETE /api/v1/students", rosterHandler.HandleDeleteAll)
	http.HandleFunc("POST /api/v1/students/bulk", rosterHandler.HandleBulkCreate)
	http.HandleFunc("POST /api/v1/students/import", rosterHandler.HandleImportCSV)

	http.HandleFunc("POST /api/v1/teams", catalogHandler.HandleCreateTeam)
	http.HandleFunc("GET /api/v1/teams", catalogHandler.HandleListTeams)
	http.HandleFunc("PUT /api/v1/teams/{id}", catalogHandler.HandleUpdateTeam)
	http.HandleFunc("DELETE /api/v1/teams/{id}", catalogHandler.HandleDeleteTeam)
	http.HandleFunc("GET /api/v1/teams/{id}/graders", catalogHandler.HandleListTeamGraders)
	http.HandleFunc("POST /api/v1/graders", catalogHandler.HandleCreateGrader)
	http.HandleFunc("GET /api/v1/graders", catalogHandler.HandleListGraders)
	http.HandleFunc("PUT /api/v1/graders/{id}", catalogHandler.HandleUpdateGrader)
	http.HandleFunc("DELETE /api/v1/graders/{id}", catalogHandler.HandleDeleteGrader)
	http.HandleFunc("GET /api/v1/graders/{id}/grades", gradeHandler.HandleListGraderGrades)
	http.HandleFunc("POST /api/v1/graders/{id}/token", catalogHandler.HandleIssueGraderToken)
	http.HandleFunc("POST /api/v1/groups", catalogHandler.HandleCreateGroup)
	http.HandleFunc("GET /api/v1/groups", catalogHandler.HandleListGroups)
	http.HandleFunc("PUT /api/v1/groups/{id}", catalogHandler.HandleUpdateGroup)
	http.HandleFunc("DELETE /api/v1/groups/{id}", catalogHandler.HandleDeleteGroup)
	http.HandleFunc("POST /api/v1/sessions", catalogHandler.HandleCreateSession)
	http.HandleFunc("GET /api/v1/sessions", catalogHandler.HandleListSessions)
	http.HandleFunc("PUT /api/v1/sessions/{id}", catalogHandler.HandleUpdateSession)
	http.HandleFunc("POST /api/v1/sessions/{id}/activate", catalogHandler.HandleActivateSession)
	http.HandleFunc("DELETE /api/v1/sessions/{id}", catalogHandler.HandleDeleteSession)

	http.HandleFunc("POST /api/v1/assignments", assignmentHandler.HandleCreate)
	http.HandleFunc("GET /api/v1/assignments", assignmentHandler.HandleList)
	http.HandleFunc("GET /api/v1/assignments/{id}", assignmentHandler.HandleGet)
	http.HandleFunc("DELETE /api/v1/assignments/{id}", assignmentHandler.HandleDelete)
	http.HandleFunc("PUT /api/v1/assignments/{id}/bonus", assignmentHandler.HandleSetBonus)
	http.HandleFunc("PUT /api/v1/assignments/{id}/team", assignmentHandler.HandleReassignTeam)
	http.HandleFunc("PUT /api/v1/assignments/{id}/group", assignmentHandler.HandleReassignGroup)
	http.HandleFunc("POST /api/v1/assignments/{id}/incomplete", assignmentHandler.HandleMarkIncomplete)
	http.HandleFunc("DELETE /api/v1/assignments/{id}/incomplete", assignmentHandler.HandleClearIncomplete)
	http.HandleFunc("POST /api/v1/assignments/sync-bonus", assignmentHandler.HandleSyncBonus)

	http.HandleFunc("POST /api/v1/assignments/{id}/graders/{grader_id}/begin", gradeHandler.HandleBeginGrading)
	http.HandleFunc("POST /api/v1/assignments/{id}/graders/{grader_id}/marks", gradeHandler.HandleSubmitMarks)
	http.HandleFunc("GET /api/v1/assignments/{id}/grades", gradeHandler.HandleListGrades)
	http.HandleFunc("DELETE /api/v1/grades/{id}", gradeHandler.HandleDeleteGrade)

	http.HandleFunc("GET /api/v1/results", reportHandler.HandleResults)
	http.HandleFunc("GET /api/v1/results/summary", reportHandler.HandleSummary)
	http.HandleFunc("GET /api/v1/results/grader-stats", reportHandler.HandleGraderStats)
	http.HandleFunc("GET /api/v1/results/export/csv", reportHandler.HandleExportCSV)
	http.HandleFunc("GET /api/v1/results/export/csv-summary", reportHandler.HandleExportSummaryCSV)

	http.HandleFunc("POST /api/v1/backups", assignmentHandler.HandleCreateBackup)
	http.HandleFunc("GET /api/v1/backups", assignmentHandler.HandleListBackups)

	http.Handle("/metrics", promhttp.Handler())

	logger.Info.Printf("Starting iqraaexam server on %s", service.Config.Server.Port)
	logger.Debug.Println("Requiring headers:")
	for _, h := range service.Config.API.RequiredHeaders {
		logger.Debug.Printf("  %s: %s", h.Name, h.Value)
	}
	if err := http.ListenAndServe(service.Config.Server.Port, nil); err != nil {
		logger.Error.Fatalf("Iqraaexam server failed: %v", err)
	}
}
