package seed

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	homedomain "github.com/smallbiznis/gridpulse/internal/home/domain"
	homerepository "github.com/smallbiznis/gridpulse/internal/home/repository"
	"gorm.io/gorm"
)

// SampleHome describes one entry of the demo registry.
type SampleHome struct {
	HomeID  string
	Address string
	Owner   string
}

var sampleHomes = []SampleHome{
	{HomeID: "H001", Address: "123 Main Street", Owner: "John Smith"},
	{HomeID: "H002", Address: "456 Oak Avenue", Owner: "Maria Garcia"},
	{HomeID: "H003", Address: "789 Pine Road", Owner: "David Johnson"},
	{HomeID: "H004", Address: "321 Elm Court", Owner: "Sarah Williams"},
	{HomeID: "H005", Address: "654 Maple Drive", Owner: "Michael Brown"},
	{HomeID: "H006", Address: "987 Cedar Lane", Owner: "Emily Davis"},
	{HomeID: "H007", Address: "147 Birch Street", Owner: "James Miller"},
	{HomeID: "H008", Address: "258 Spruce Way", Owner: "Jennifer Wilson"},
	{HomeID: "H009", Address: "369 Ash Boulevard", Owner: "Robert Moore"},
	{HomeID: "H010", Address: "741 Willow Path", Owner: "Lisa Anderson"},
}

// SampleHomes returns a copy of the demo registry.
func SampleHomes() []SampleHome {
	out := make([]SampleHome, len(sampleHomes))
	copy(out, sampleHomes)
	return out
}

// EnsureHomes inserts the sample homes when the registry is empty.
// It returns the number of rows created, zero when the table already had data.
func EnsureHomes(db *gorm.DB) (int, error) {
	if db == nil {
		return 0, errors.New("seed database handle is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return 0, err
	}

	ctx := context.Background()
	created := 0
	err = db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := homerepository.Provide(tx)
		count, err := repo.Count(ctx)
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		now := time.Now().UTC()
		homes := make([]*homedomain.Home, 0, len(sampleHomes))
		for _, sample := range sampleHomes {
			homes = append(homes, &homedomain.Home{
				ID:        node.Generate(),
				HomeID:    sample.HomeID,
				Address:   sample.Address,
				Owner:     sample.Owner,
				CreatedAt: now,
			})
		}
		if err := repo.BatchInsert(ctx, homes); err != nil {
			return err
		}
		created = len(homes)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return created, nil
}
