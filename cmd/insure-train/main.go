package main

import (
	"flag"
	"fmt"
	"log"
	"sort"

	"github.com/ashwinyue/insure-ai/internal/service/classifier"
	"github.com/ashwinyue/insure-ai/internal/service/dataset"
)

func main() {
	csvPath := flag.String("csv", "data/insurance_qa.csv", "path to the question/answer CSV")
	modelDir := flag.String("model-dir", "models", "directory to write trained model files")
	maxFeatures := flag.Int("max-features", 1000, "vocabulary size limit")
	testSplit := flag.Float64("test-split", 0.3, "validation split fraction")
	epochs := flag.Int("epochs", 400, "training epochs")
	learningRate := flag.Float64("lr", 0.5, "learning rate")
	seed := flag.Int64("seed", 42, "random seed for the train/validation split")
	flag.Parse()

	ds, err := dataset.Load(*csvPath)
	if err != nil {
		log.Fatalf("Failed to load dataset: %v", err)
	}

	fmt.Printf("Loaded %d rows from %s", len(ds.Rows), *csvPath)
	if ds.Skipped > 0 {
		fmt.Printf(" (%d invalid rows skipped)", ds.Skipped)
	}
	fmt.Println()

	dist := ds.Distribution()
	categories := make([]string, 0, len(dist))
	for cat := range dist {
		categories = append(categories, cat)
	}
	sort.Strings(categories)
	fmt.Println("Category distribution:")
	for _, cat := range categories {
		fmt.Printf("  %-20s %d\n", cat, dist[cat])
	}

	clf, report, err := classifier.Train(ds.Questions(), ds.Categories(), classifier.TrainOptions{
		MaxFeatures:  *maxFeatures,
		TestSplit:    *testSplit,
		Epochs:       *epochs,
		LearningRate: *learningRate,
		Seed:         *seed,
	})
	if err != nil {
		log.Fatalf("Training failed: %v", err)
	}

	fmt.Println()
	if report.Accuracy < 0 {
		fmt.Println("Dataset too small for a validation split; trained on all samples")
	} else {
		fmt.Printf("Validation accuracy: %.2f%%\n", report.Accuracy*100)
		fmt.Println("Per-class metrics:")
		for _, cr := range report.PerClass {
			fmt.Printf("  %-20s precision=%.2f recall=%.2f f1=%.2f support=%d\n",
				cr.Class, cr.Precision, cr.Recall, cr.F1, cr.Support)
		}
	}

	if err := clf.Save(*modelDir); err != nil {
		log.Fatalf("Failed to save model: %v", err)
	}
	fmt.Printf("Model saved to %s\n", *modelDir)
}
