package main

import (
	"context"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"personaforge/internal/config"
	"personaforge/internal/model"
	"personaforge/internal/repository"
)

const seedRespondents = 200

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("Failed to connect to MongoDB: %v", err)
	}
	defer client.Disconnect(ctx)

	db := client.Database(cfg.MongoDB)
	datasetRepo := repository.NewDatasetRepo(db)
	respondentRepo := repository.NewRespondentRepo(db)

	columns := []model.ColumnMapping{
		{Column: 0, LongName: "Values | How important is sustainability to you?", ShortName: "sustainability_importance"},
		{Column: 1, LongName: "Behavior | Have you purchased a product because it was sustainable?", ShortName: "sustainable_purchase"},
		{Column: 2, LongName: "Behavior | Would you pay more for a sustainable option?", ShortName: "premium_willingness"},
		{Column: 3, LongName: "Values | Do brand values influence your choices?", ShortName: "brand_values_alignment"},
		{Column: 4, LongName: "Behavior | How price sensitive are you?", ShortName: "price_sensitivity"},
		{Column: 5, LongName: "Behavior | How much do you prioritize convenience?", ShortName: "convenience_priority"},
		{Column: 6, LongName: "Behavior | How often do you shop for groceries?", ShortName: "shopping_frequency"},
	}

	dataset := &model.Dataset{
		Name:              "Sustainable Shopping Survey (seed)",
		TargetDemographic: "Urban grocery shoppers, 25-45",
		Description:       "Synthetic respondents for local development.",
		Status:            model.DatasetStatusReady,
		HeaderRows:        []int{0, 1},
		DataStartRow:      2,
		Columns:           columns,
		RespondentCount:   seedRespondents,
	}

	if err := datasetRepo.Create(ctx, dataset); err != nil {
		log.Fatalf("Failed to create dataset: %v", err)
	}

	seed := time.Now().UnixNano()
	if env := os.Getenv("SEED"); env != "" {
		fmt.Sscanf(env, "%d", &seed)
	}
	rng := rand.New(rand.NewSource(seed))

	frequencies := []string{"always", "often", "sometimes", "rarely", "never"}
	respondents := make([]*model.Respondent, seedRespondents)
	for i := range respondents {
		// Correlate the core variables so the weighted bands and the
		// clusters both have structure to find.
		engagement := rng.Float64()

		respondents[i] = &model.Respondent{
			DatasetID: dataset.ID,
			Row:       dataset.DataStartRow + i,
			Answers: []model.QA{
				{QuestionID: "sustainability_importance", Answer: model.NumberAnswer(noisyScale(rng, engagement))},
				{QuestionID: "sustainable_purchase", Answer: model.NumberAnswer(noisyScale(rng, engagement))},
				{QuestionID: "premium_willingness", Answer: model.NumberAnswer(noisyScale(rng, engagement))},
				{QuestionID: "brand_values_alignment", Answer: model.NumberAnswer(noisyScale(rng, engagement))},
				{QuestionID: "price_sensitivity", Answer: model.NumberAnswer(noisyScale(rng, 1-engagement))},
				{QuestionID: "convenience_priority", Answer: model.NumberAnswer(float64(1 + rng.Intn(5)))},
				{QuestionID: "shopping_frequency", Answer: model.TextAnswer(frequencies[rng.Intn(len(frequencies))])},
			},
		}
	}

	if err := respondentRepo.CreateMany(ctx, respondents); err != nil {
		log.Fatalf("Failed to insert respondents: %v", err)
	}

	fmt.Printf("Seeded dataset %s with %d respondents\n", dataset.ID, seedRespondents)
}

// noisyScale maps engagement in [0,1] to a 1-5 answer with jitter
func noisyScale(rng *rand.Rand, engagement float64) float64 {
	v := 1 + engagement*4 + rng.NormFloat64()*0.7
	if v < 1 {
		v = 1
	}
	if v > 5 {
		v = 5
	}
	return float64(int(v + 0.5))
}
