package config

import (
	"github.com/vishwajeetdabholkar/resume-parser-api/internal/domain"
	"github.com/vishwajeetdabholkar/resume-parser-api/internal/service"
	"github.com/vishwajeetdabholkar/resume-parser-api/pkg/logger"
)

// Container holds all application dependencies
type Container struct {
	Config     domain.Config
	Logger     domain.Logger
	PDFService domain.ResumeProcessor
	AIService  domain.ResumeAI
}

// NewContainer creates a new dependency injection container
func NewContainer() *Container {
	config := NewConfig()
	appLogger := logger.NewLogger(config.GetLogLevel())

	pdfConfig := config.GetPDFConfig()

	// Extraction pipeline
	ocrEngine := service.NewOCREngine(pdfConfig.TesseractPath, appLogger)
	textExtractor := service.NewTextExtractor(pdfConfig, ocrEngine, appLogger)
	linkExtractor := service.NewHyperlinkExtractor(appLogger)
	pdfService := service.NewPDFService(textExtractor, linkExtractor, pdfConfig, appLogger)

	aiService := service.NewAIService(config.GetOpenAIConfig(), appLogger)

	return &Container{
		Config:     config,
		Logger:     appLogger,
		PDFService: pdfService,
		AIService:  aiService,
	}
}
