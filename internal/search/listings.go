package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/elastic/go-elasticsearch/v9"

	"github.com/Skotchmaster/stayfinder/internal/models"
)

type ListingIndex struct {
	ES    *elasticsearch.Client
	Index string
}

type listingDoc struct {
	ID            uint   `json:"id"`
	Title         string `json:"title"`
	Description   string `json:"description"`
	PricePerNight int64  `json:"price_per_night"`
	NumGuests     int    `json:"num_guests"`
	Status        string `json:"status"`
	Featured      bool   `json:"featured"`
}

func (i *ListingIndex) IndexListing(ctx context.Context, l *models.Listing) error {
	doc := listingDoc{
		ID:            l.ID,
		Title:         l.Title,
		Description:   l.Description,
		PricePerNight: l.PricePerNight,
		NumGuests:     l.NumGuests,
		Status:        l.Status,
		Featured:      l.Featured,
	}
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(doc); err != nil {
		return err
	}

	res, err := i.ES.Index(
		i.Index,
		&buf,
		i.ES.Index.WithContext(ctx),
		i.ES.Index.WithDocumentID(strconv.FormatUint(uint64(l.ID), 10)),
	)
	if err != nil {
		return fmt.Errorf("index listing: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return responseError("index listing", res.StatusCode, res.Body)
	}
	return nil
}

func (i *ListingIndex) DeleteListing(ctx context.Context, id uint) error {
	res, err := i.ES.Delete(
		i.Index,
		strconv.FormatUint(uint64(id), 10),
		i.ES.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("delete listing: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return responseError("delete listing", res.StatusCode, res.Body)
	}
	return nil
}

// SearchIDs runs a fuzzy multi_match over title and description and returns hit ids by score.
func (i *ListingIndex) SearchIDs(ctx context.Context, query string, limit int) ([]uint, error) {
	body := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":     query,
				"fields":    []string{"title^2", "description"},
				"fuzziness": "AUTO",
			},
		},
		"_source": []string{"id"},
		"size":    limit,
	}

	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, err
	}

	res, err := i.ES.Search(
		i.ES.Search.WithContext(ctx),
		i.ES.Search.WithIndex(i.Index),
		i.ES.Search.WithBody(&buf),
	)
	if err != nil {
		return nil, fmt.Errorf("search listings: %w", err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, responseError("search listings", res.StatusCode, res.Body)
	}

	var r struct {
		Hits struct {
			Hits []struct {
				Source listingDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&r); err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(r.Hits.Hits))
	for _, hit := range r.Hits.Hits {
		ids = append(ids, hit.Source.ID)
	}
	return ids, nil
}

func responseError(op string, status int, body io.Reader) error {
	msg, _ := io.ReadAll(io.LimitReader(body, 4096))
	return fmt.Errorf("%s: status %d: %s", op, status, bytes.TrimSpace(msg))
}
