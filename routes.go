package main

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/segmentio/encoding/json"
	"go.uber.org/zap"

	"massbank-harvester/app"
	"massbank-harvester/catalog"
	"massbank-harvester/chem"
	"massbank-harvester/models"
	"massbank-harvester/storage"
)

type sourceStore interface {
	ListSources(ctx context.Context, activeOnly bool) ([]models.HarvestSource, error)
	CreateSource(ctx context.Context, src *models.HarvestSource) error
	GetSource(ctx context.Context, id string) (*models.HarvestSource, error)
	ListJobs(ctx context.Context, sourceID string, limit int) ([]models.HarvestJob, error)
}

type jobStore interface {
	GetJob(ctx context.Context, id string) (*models.HarvestJob, error)
	ObjectStateCounts(ctx context.Context, jobID string) (map[string]int64, error)
	JobErrors(ctx context.Context, jobID string) (*storage.JobErrors, error)
}

type packageStore interface {
	ShowPackage(ctx context.Context, id string) (*models.Package, error)
	ListPackages(ctx context.Context, ownerOrg string, limit, offset int) ([]models.Package, int64, error)
}

type harvestStarter interface {
	StartSource(sourceID string) error
}

// createSourceRequest erlaubt config als JSON-Objekt oder als String.
type createSourceRequest struct {
	ID       string `json:"id"`
	URL      string `json:"url" binding:"required"`
	Title    string `json:"title"`
	OwnerOrg string `json:"owner_org"`
	Config   any    `json:"config"`
}

func (r createSourceRequest) configBlob() (string, error) {
	switch v := r.Config.(type) {
	case nil:
		return "", nil
	case string:
		return strings.TrimSpace(v), nil
	default:
		b, err := json.Marshal(v)
		return string(b), err
	}
}

func queryInt(c *gin.Context, key string, def, max int) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil || v <= 0 {
		return def
	}
	if v > max {
		return max
	}
	return v
}

func setupSourceRoutes(router *gin.Engine, store sourceStore, starter harvestStarter, log *zap.Logger) {
	router.GET("/sources", func(c *gin.Context) {
		sources, err := store.ListSources(c.Request.Context(), c.Query("active") == "true")
		if err != nil {
			log.Error("Failed to list sources", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, sources)
	})

	router.POST("/sources", func(c *gin.Context) {
		var req createSourceRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		blob, err := req.configBlob()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		src := &models.HarvestSource{
			ID:       req.ID,
			URL:      req.URL,
			Title:    req.Title,
			OwnerOrg: req.OwnerOrg,
			Config:   blob,
		}
		if err := store.CreateSource(c.Request.Context(), src); err != nil {
			log.Error("Failed to create source", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusCreated, src)
	})

	router.GET("/sources/:id", func(c *gin.Context) {
		src, err := store.GetSource(c.Request.Context(), c.Param("id"))
		if err != nil {
			notFoundOrError(c, err)
			return
		}
		c.JSON(http.StatusOK, src)
	})

	router.GET("/sources/:id/jobs", func(c *gin.Context) {
		jobs, err := store.ListJobs(c.Request.Context(), c.Param("id"), queryInt(c, "limit", 20, 200))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, jobs)
	})

	router.POST("/sources/:id/harvest", func(c *gin.Context) {
		id := c.Param("id")
		if _, err := store.GetSource(c.Request.Context(), id); err != nil {
			notFoundOrError(c, err)
			return
		}
		if err := starter.StartSource(id); err != nil {
			if errors.Is(err, app.ErrAlreadyRunning) {
				c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		log.Info("Harvest manuell gestartet", zap.String("source_id", id))
		c.JSON(http.StatusAccepted, gin.H{"status": "started", "source_id": id})
	})
}

func setupJobRoutes(router *gin.Engine, store jobStore, log *zap.Logger) {
	router.GET("/jobs/:id", func(c *gin.Context) {
		ctx := c.Request.Context()
		job, err := store.GetJob(ctx, c.Param("id"))
		if err != nil {
			notFoundOrError(c, err)
			return
		}
		counts, err := store.ObjectStateCounts(ctx, job.ID)
		if err != nil {
			log.Error("Failed to count harvest objects", zap.String("job_id", job.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"job": job, "objects": counts})
	})

	router.GET("/jobs/:id/errors", func(c *gin.Context) {
		errs, err := store.JobErrors(c.Request.Context(), c.Param("id"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, errs)
	})
}

func setupPackageRoutes(router *gin.Engine, store packageStore, log *zap.Logger) {
	router.GET("/packages", func(c *gin.Context) {
		limit := queryInt(c, "limit", 50, 500)
		offset, _ := strconv.Atoi(c.Query("offset"))
		if offset < 0 {
			offset = 0
		}
		pkgs, total, err := store.ListPackages(c.Request.Context(), c.Query("owner_org"), limit, offset)
		if err != nil {
			log.Error("Failed to list packages", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": total, "results": pkgs})
	})

	router.GET("/packages/:id", func(c *gin.Context) {
		pkg, err := store.ShowPackage(c.Request.Context(), c.Param("id"))
		if err != nil {
			notFoundOrError(c, err)
			return
		}
		c.JSON(http.StatusOK, pkg)
	})
}

func setupChemistryRoutes(router *gin.Engine) {
	router.GET("/chemistry/mass", func(c *gin.Context) {
		mol, err := chem.ParseInChI(c.Query("inchi"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"formula":          mol.Formula,
			"exact_mass":       strconv.FormatFloat(mol.ExactMass(), 'f', 6, 64),
			"molecular_weight": strconv.FormatFloat(mol.MolecularWeight(), 'f', 4, 64),
		})
	})
}

func notFoundOrError(c *gin.Context, err error) {
	if errors.Is(err, storage.ErrNotFound) || errors.Is(err, catalog.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}
