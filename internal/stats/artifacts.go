package stats

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"symreg/internal/model"
)

// RunArtifacts bundles everything written to a run's artifacts
// directory.
type RunArtifacts struct {
	Run              model.RunRecord               `json:"run"`
	BestByGeneration []float64                     `json:"best_by_generation"`
	Diagnostics      []model.GenerationDiagnostics `json:"diagnostics,omitempty"`
	TopExpressions   []model.TopExpressionRecord   `json:"top_expressions"`
}

// WriteRunArtifacts writes the run summary, fitness history, generation
// diagnostics, and top expressions under baseDir/<runID> and returns
// the run directory path.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Run.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Run.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, "run.json"), artifacts.Run); err != nil {
		return "", err
	}
	if err := writeFitnessCSV(filepath.Join(runDir, "fitness_history.csv"), artifacts.BestByGeneration); err != nil {
		return "", err
	}
	if err := writeDiagnosticsCSV(filepath.Join(runDir, "diagnostics.csv"), artifacts.Diagnostics); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, "top_expressions.json"), artifacts.TopExpressions); err != nil {
		return "", err
	}

	return runDir, nil
}

// ReadRunRecord loads a run summary back from its artifacts directory.
func ReadRunRecord(baseDir, runID string) (model.RunRecord, bool, error) {
	data, err := os.ReadFile(filepath.Join(baseDir, runID, "run.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return model.RunRecord{}, false, nil
		}
		return model.RunRecord{}, false, err
	}

	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, false, err
	}
	return run, true, nil
}

func writeFitnessCSV(path string, bestByGeneration []float64) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"generation", "best_fitness"}); err != nil {
		return err
	}
	for i, best := range bestByGeneration {
		if err := writer.Write([]string{
			strconv.Itoa(i + 1),
			strconv.FormatFloat(best, 'f', -1, 64),
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeDiagnosticsCSV(path string, diagnostics []model.GenerationDiagnostics) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	header := []string{
		"generation", "best_fitness", "mean_fitness", "min_fitness",
		"best_mse", "best_r2", "mean_tree_size", "distinct_expressions",
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, d := range diagnostics {
		record := []string{
			strconv.Itoa(d.Generation),
			strconv.FormatFloat(d.BestFitness, 'f', -1, 64),
			strconv.FormatFloat(d.MeanFitness, 'f', -1, 64),
			strconv.FormatFloat(d.MinFitness, 'f', -1, 64),
			strconv.FormatFloat(d.BestMSE, 'g', -1, 64),
			strconv.FormatFloat(d.BestR2, 'g', -1, 64),
			strconv.FormatFloat(d.MeanTreeSize, 'f', -1, 64),
			strconv.Itoa(d.DistinctExpressions),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}
