package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/SergeiKhy/linkflow/internal/models"
	"github.com/jackc/pgx/v5"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

const linkColumns = `id, user_id, title, destination_url, category, short_code, short_url,
	status, clicks, revenue, created_at, updated_at`

type LinkRepository interface {
	Create(ctx context.Context, link *models.Link) error
	GetByID(ctx context.Context, id, ownerID int64) (*models.Link, error)
	GetByShortCode(ctx context.Context, code string) (*models.Link, error)
	ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Link, error)
	Update(ctx context.Context, id, ownerID int64, input *models.UpdateLinkInput) (*models.Link, error)
	// Delete удаляет ссылку владельца и возвращает её короткий код
	Delete(ctx context.Context, id, ownerID int64) (string, error)
}

type linkRepository struct {
	db *PostgresDB
}

func NewLinkRepository(db *PostgresDB) LinkRepository {
	return &linkRepository{db: db}
}

func (r *linkRepository) Create(ctx context.Context, link *models.Link) error {
	query := `
		INSERT INTO links (user_id, title, destination_url, category, short_code, short_url, status, clicks, revenue)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, 0)
		RETURNING id, clicks, revenue, created_at, updated_at
	`

	err := r.db.Pool.QueryRow(
		ctx,
		query,
		link.UserID,
		link.Title,
		link.DestinationURL,
		link.Category,
		link.ShortCode,
		link.ShortURL,
		link.Status,
	).Scan(&link.ID, &link.Clicks, &link.Revenue, &link.CreatedAt, &link.UpdatedAt)

	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		if isForeignKeyViolation(err) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to create link: %w", err)
	}

	return nil
}

func (r *linkRepository) GetByID(ctx context.Context, id, ownerID int64) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE id = $1 AND user_id = $2`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, id, ownerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) GetByShortCode(ctx context.Context, code string) (*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE short_code = $1`

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to get link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) ListByOwner(ctx context.Context, ownerID int64, offset, limit int) ([]*models.Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE user_id = $1 ORDER BY id LIMIT $2 OFFSET $3`

	rows, err := r.db.Pool.Query(ctx, query, ownerID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list links: %w", err)
	}
	defer rows.Close()

	links := make([]*models.Link, 0)
	for rows.Next() {
		link, err := scanLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan link: %w", err)
		}
		links = append(links, link)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating links: %w", err)
	}

	return links, nil
}

func (r *linkRepository) Update(ctx context.Context, id, ownerID int64, input *models.UpdateLinkInput) (*models.Link, error) {
	// short_code неизменяем и не обновляется
	query := `
		UPDATE links SET
			title = COALESCE($3, title),
			destination_url = COALESCE($4, destination_url),
			category = COALESCE($5, category),
			status = COALESCE($6, status),
			updated_at = NOW()
		WHERE id = $1 AND user_id = $2
		RETURNING ` + linkColumns

	link, err := scanLink(r.db.Pool.QueryRow(ctx, query,
		id,
		ownerID,
		input.Title,
		input.DestinationURL,
		input.Category,
		input.Status,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrLinkNotFound
		}
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	return link, nil
}

func (r *linkRepository) Delete(ctx context.Context, id, ownerID int64) (string, error) {
	query := `DELETE FROM links WHERE id = $1 AND user_id = $2 RETURNING short_code`

	var code string
	err := r.db.Pool.QueryRow(ctx, query, id, ownerID).Scan(&code)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", fmt.Errorf("failed to delete link: %w", err)
	}

	return code, nil
}

func scanLink(row pgx.Row) (*models.Link, error) {
	link := &models.Link{}
	err := row.Scan(
		&link.ID,
		&link.UserID,
		&link.Title,
		&link.DestinationURL,
		&link.Category,
		&link.ShortCode,
		&link.ShortURL,
		&link.Status,
		&link.Clicks,
		&link.Revenue,
		&link.CreatedAt,
		&link.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return link, nil
}
