package main

import (
	"context"
	"fmt"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/dspaces1/whatEatBE/internal/domain/recipe"
	"github.com/dspaces1/whatEatBE/internal/domain/user"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/config"
	"github.com/dspaces1/whatEatBE/internal/infrastructure/persistence/postgres"
)

const (
	seedUsers          = 5
	seedRecipesPerUser = 4
	seedPassword       = "demo-password-1"
)

// seed fills a development database with fake users and recipes. The
// generator is seeded so repeated runs on a fresh database produce the
// same data.
func seed(cfg *config.Config, log *zap.Logger) error {
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()

	users := postgres.NewUserRepository(pool, log)
	recipes := postgres.NewRecipeRepository(pool, log)
	faker := gofakeit.New(42)

	for i := 0; i < seedUsers; i++ {
		u, err := user.NewUser(faker.Email(), faker.Name(), seedPassword)
		if err != nil {
			return fmt.Errorf("build seed user: %w", err)
		}
		if err := users.Create(ctx, u); err != nil {
			return fmt.Errorf("create seed user: %w", err)
		}

		for j := 0; j < seedRecipesPerUser; j++ {
			rec, err := seedRecipe(faker, u.ID())
			if err != nil {
				return fmt.Errorf("build seed recipe: %w", err)
			}
			if err := recipes.Create(ctx, rec); err != nil {
				return fmt.Errorf("create seed recipe: %w", err)
			}
		}

		log.Info("seeded user",
			zap.String("email", u.Email()),
			zap.Int("recipes", seedRecipesPerUser),
		)
	}

	log.Info("seeding complete",
		zap.Int("users", seedUsers),
		zap.Int("recipes", seedUsers*seedRecipesPerUser),
	)
	return nil
}

func seedRecipe(faker *gofakeit.Faker, ownerID uuid.UUID) (*recipe.Recipe, error) {
	servings := faker.Number(2, 8)
	prep := faker.Number(5, 30)
	cook := faker.Number(10, 90)
	calories := faker.Number(200, 900)

	ingredients := make([]string, 0, 6)
	for k := 0; k < 4; k++ {
		ingredients = append(ingredients,
			fmt.Sprintf("%d g %s", faker.Number(50, 400), faker.Vegetable()))
	}
	ingredients = append(ingredients, fmt.Sprintf("1 %s, sliced", faker.Fruit()))

	steps := []string{
		"Prepare and wash all ingredients.",
		fmt.Sprintf("Cook over medium heat for about %d minutes.", cook),
		"Season to taste and serve warm.",
	}

	env, missing := recipe.BuildEnvelope(&recipe.PartialRecipeData{
		Title:           faker.Dinner(),
		Description:     faker.Sentence(12),
		Servings:        &servings,
		Calories:        &calories,
		PrepTimeMinutes: &prep,
		CookTimeMinutes: &cook,
		Tags:            []string{faker.RandomString(recipe.CanonicalTags)},
		Cuisine:         faker.RandomString(recipe.CanonicalCuisines),
		Ingredients:     ingredients,
		Steps:           steps,
	}, "")
	if env == nil {
		return nil, fmt.Errorf("seed recipe incomplete: %v", missing)
	}
	env.Source = recipe.EnvelopeSource{Type: recipe.SourceTypeManual}

	return recipe.FromEnvelope(env, &ownerID)
}
