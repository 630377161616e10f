package db

import (
	"context"
	"errors"
	"strings"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/nntruong1907/CT449-contactbook-backend/conf"
	"github.com/nntruong1907/CT449-contactbook-backend/user"
)

type DBPersistent interface {
	DB() *gorm.DB
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(cfg conf.Persistence) (user.Repository, error) {
	dsn := cfg.Host + "/" + cfg.Name + ".db"
	if cfg.InMem {
		dsn = "file:" + cfg.Name + "?mode=memory&cache=shared"
	}

	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// sqlite allows a single writer
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&User{}); err != nil {
		return nil, err
	}

	repo := new(userRepository)
	repo.db = db
	return repo, nil
}

func (repo *userRepository) ValidID(id string) bool {
	return user.IsULID(id)
}

func (repo *userRepository) Insert(ctx context.Context, u *user.User) error {
	row := NewUser(u)
	row.ID = user.NewID()

	if err := repo.db.WithContext(ctx).Create(row).Error; err != nil {
		return translate(err)
	}

	u.ID = row.ID
	return nil
}

func (repo *userRepository) FindOne(ctx context.Context, filter user.Filter) (*user.User, error) {
	var row User

	result := where(repo.db.WithContext(ctx), filter).
		Order("id").
		Take(&row)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	return row.reconstitute(), nil
}

func (repo *userRepository) Find(ctx context.Context, filter user.Filter) ([]*user.User, error) {
	var rows []*User

	result := where(repo.db.WithContext(ctx), filter).
		Order("id").
		Find(&rows)

	if err := result.Error; err != nil {
		return nil, translate(err)
	}

	users := make([]*user.User, len(rows))
	for i, row := range rows {
		users[i] = row.reconstitute()
	}

	return users, nil
}

func (repo *userRepository) FindOneAndUpdate(ctx context.Context, id string, update user.Update) (*user.User, error) {
	var u *user.User

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row User
		if err := tx.Take(&row, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		u = row.reconstitute()
		u.Apply(update)

		if err := tx.Save(NewUser(u)).Error; err != nil {
			return translate(err)
		}

		return nil
	})

	if err != nil {
		return nil, translate(err)
	}

	return u, nil
}

func (repo *userRepository) FindOneAndDelete(ctx context.Context, id string) (*user.User, error) {
	var u *user.User

	err := repo.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var row User
		if err := tx.Take(&row, "id = ?", id).Error; err != nil {
			return translate(err)
		}

		if err := tx.Delete(&row).Error; err != nil {
			return translate(err)
		}

		u = row.reconstitute()
		return nil
	})

	if err != nil {
		return nil, translate(err)
	}

	return u, nil
}

func (repo *userRepository) DeleteMany(ctx context.Context, filter user.Filter) (int64, error) {
	tx := repo.db.WithContext(ctx).Session(&gorm.Session{AllowGlobalUpdate: true})

	result := where(tx, filter).Delete(&User{})
	if err := result.Error; err != nil {
		return 0, translate(err)
	}

	return result.RowsAffected, nil
}

func (repo *userRepository) Ping(ctx context.Context) error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return user.StorageError(err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		return user.StorageError(err)
	}

	return nil
}

func (repo *userRepository) DB() *gorm.DB {
	return repo.db
}

func (repo *userRepository) Close() error {
	sqlDB, err := repo.db.DB()
	if err != nil {
		return err
	}

	return sqlDB.Close()
}

func where(tx *gorm.DB, filter user.Filter) *gorm.DB {
	if filter.ID != "" {
		tx = tx.Where("id = ?", filter.ID)
	}

	if filter.Username != "" {
		tx = tx.Where("username = ?", filter.Username)
	}

	if filter.Name != "" {
		tx = tx.Where(`LOWER(name) LIKE ? ESCAPE '\'`, containsPattern(filter.Name))
	}

	if filter.Address != "" {
		tx = tx.Where(`LOWER(address) LIKE ? ESCAPE '\'`, containsPattern(filter.Address))
	}

	if filter.Favorite != nil {
		tx = tx.Where("favorite = ?", *filter.Favorite)
	}

	return tx
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds a LIKE operand that matches s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(s)) + "%"
}

func translate(err error) error {
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return user.ErrUserNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return user.ErrUserExists
	case errors.Is(err, user.ErrUserNotFound),
		errors.Is(err, user.ErrUserExists),
		errors.Is(err, user.ErrStorageUnavailable):
		return err
	default:
		return user.StorageError(err)
	}
}
