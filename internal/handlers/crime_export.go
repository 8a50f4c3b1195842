package handlers

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/hildolfr/dazza-sub007/internal/services"

	"github.com/gin-gonic/gin"
)

type ExportCrime struct {
	Name            string  `json:"name"`
	Difficulty      int     `json:"difficulty"`
	BaseProbability float64 `json:"base_probability"`
	PayoutMin       int     `json:"payout_min"`
	PayoutMax       int     `json:"payout_max"`
	Enabled         bool    `json:"enabled"`
}

type ExportData struct {
	Crimes []ExportCrime `json:"crimes"`
}

func (h *CrimeHandler) ExportCrimes(c *gin.Context) {
	crimes, err := h.crimeService.ListCrimes()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: err.Error()})
		return
	}

	data := ExportData{}
	for _, cr := range crimes {
		data.Crimes = append(data.Crimes, ExportCrime{
			Name:            cr.Name,
			Difficulty:      cr.Difficulty,
			BaseProbability: cr.BaseProbability,
			PayoutMin:       cr.PayoutMin,
			PayoutMax:       cr.PayoutMax,
			Enabled:         cr.Enabled,
		})
	}

	format := c.DefaultQuery("format", "json")

	if format == "csv" {
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", "attachment; filename=\"crimes.csv\"")

		w := csv.NewWriter(c.Writer)
		w.Write([]string{"name", "difficulty", "base_probability", "payout_min", "payout_max", "enabled"})
		for _, cr := range data.Crimes {
			w.Write([]string{
				cr.Name,
				strconv.Itoa(cr.Difficulty),
				strconv.FormatFloat(cr.BaseProbability, 'f', -1, 64),
				strconv.Itoa(cr.PayoutMin),
				strconv.Itoa(cr.PayoutMax),
				strconv.FormatBool(cr.Enabled),
			})
		}
		w.Flush()
		return
	}

	c.Header("Content-Disposition", "attachment; filename=\"crimes.json\"")
	c.JSON(http.StatusOK, data)
}

func (h *CrimeHandler) ImportCrimes(c *gin.Context) {
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "file required"})
		return
	}
	defer file.Close()

	body, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "cannot read file"})
		return
	}

	var importData ExportData
	fname := strings.ToLower(header.Filename)

	if strings.HasSuffix(fname, ".csv") {
		importData, err = parseCrimeCSV(body)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
			return
		}
	} else {
		if err := json.Unmarshal(body, &importData); err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid JSON: " + err.Error()})
			return
		}
	}

	inputs := make([]services.CrimeInput, 0, len(importData.Crimes))
	for _, cr := range importData.Crimes {
		enabled := cr.Enabled
		inputs = append(inputs, services.CrimeInput{
			Name:            cr.Name,
			Difficulty:      cr.Difficulty,
			BaseProbability: cr.BaseProbability,
			PayoutMin:       cr.PayoutMin,
			PayoutMax:       cr.PayoutMax,
			Enabled:         &enabled,
		})
	}

	count, err := h.crimeService.ImportCrimes(inputs)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"imported_crimes": count})
}

func parseCrimeCSV(data []byte) (ExportData, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	records, err := r.ReadAll()
	if err != nil {
		return ExportData{}, fmt.Errorf("invalid CSV: %w", err)
	}

	if len(records) < 2 {
		return ExportData{}, fmt.Errorf("CSV must have header + at least 1 row")
	}

	var result ExportData
	for _, row := range records[1:] {
		if len(row) < 5 {
			continue
		}

		name := strings.TrimSpace(row[0])
		if name == "" {
			continue
		}

		difficulty, _ := strconv.Atoi(strings.TrimSpace(row[1]))
		baseProb, _ := strconv.ParseFloat(strings.TrimSpace(row[2]), 64)
		payoutMin, _ := strconv.Atoi(strings.TrimSpace(row[3]))
		payoutMax, _ := strconv.Atoi(strings.TrimSpace(row[4]))

		enabled := true
		if len(row) > 5 {
			if v, err := strconv.ParseBool(strings.TrimSpace(row[5])); err == nil {
				enabled = v
			}
		}

		result.Crimes = append(result.Crimes, ExportCrime{
			Name:            name,
			Difficulty:      difficulty,
			BaseProbability: baseProb,
			PayoutMin:       payoutMin,
			PayoutMax:       payoutMax,
			Enabled:         enabled,
		})
	}

	return result, nil
}
