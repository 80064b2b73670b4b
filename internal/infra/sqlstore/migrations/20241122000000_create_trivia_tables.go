package migrations

import (
	"context"

	"github.com/uptrace/bun"

	"trivia-service/internal/infra/sqlstore"
)

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
				for _, model := range sqlstore.Models() {
					if _, err := tx.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
						return err
					}
				}
				indexes := []struct {
					table   string
					name    string
					columns []string
				}{
					{"options", "options_question_idx", []string{"question_id", "position"}},
					{"trivia_users", "trivia_users_user_idx", []string{"user_id"}},
					{"participations", "participations_ranking_idx", []string{"trivia_id", "score"}},
					{"answers", "answers_participation_idx", []string{"participation_id"}},
				}
				for _, idx := range indexes {
					_, err := tx.NewCreateIndex().Table(idx.table).Index(idx.name).Column(idx.columns...).IfNotExists().Exec(ctx)
					if err != nil {
						return err
					}
				}
				return nil
			})
		},
		func(ctx context.Context, db *bun.DB) error {
			models := sqlstore.Models()
			for i := len(models) - 1; i >= 0; i-- {
				if _, err := db.NewDropTable().Model(models[i]).IfExists().Exec(ctx); err != nil {
					return err
				}
			}
			return nil
		},
	)
}
