// Copyright 2026 Blink Labs Software
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

const (
	DefaultPaginationCount    = 100
	MaxPaginationCount        = 100
	DefaultPaginationPage     = 1
	DefaultPaginationOrderAsc = "asc"
	PaginationOrderDesc       = "desc"
)

var ErrInvalidPaginationParameters = errors.New(
	"invalid pagination parameters",
)

// PaginationParams contains parsed pagination query values.
type PaginationParams struct {
	Count int
	Page  int
	Order string
}

// Offset is the index of the first item on the page
func (p PaginationParams) Offset() int {
	return (p.Page - 1) * p.Count
}

func (p PaginationParams) Ascending() bool {
	return p.Order != PaginationOrderDesc
}

// ParsePagination parses the count, page and order query parameters,
// clamping count and page into range. defaultOrder applies when no order
// is given.
func ParsePagination(
	r *http.Request,
	defaultOrder string,
) (PaginationParams, error) {
	params := PaginationParams{
		Count: DefaultPaginationCount,
		Page:  DefaultPaginationPage,
		Order: defaultOrder,
	}
	query := r.URL.Query()
	var err error
	if params.Count, err = queryInt(query.Get("count"), params.Count); err != nil {
		return PaginationParams{}, fmt.Errorf("%w: count", ErrInvalidPaginationParameters)
	}
	if params.Page, err = queryInt(query.Get("page"), params.Page); err != nil {
		return PaginationParams{}, fmt.Errorf("%w: page", ErrInvalidPaginationParameters)
	}
	if orderParam := query.Get("order"); orderParam != "" {
		switch order := strings.ToLower(orderParam); order {
		case DefaultPaginationOrderAsc, PaginationOrderDesc:
			params.Order = order
		default:
			return PaginationParams{}, fmt.Errorf("%w: order", ErrInvalidPaginationParameters)
		}
	}
	params.Count = min(max(params.Count, 1), MaxPaginationCount)
	params.Page = max(params.Page, 1)
	return params, nil
}

func queryInt(val string, def int) (int, error) {
	if val == "" {
		return def, nil
	}
	return strconv.Atoi(val)
}

// SetPaginationHeaders reports the total item and page counts
func SetPaginationHeaders(
	w http.ResponseWriter,
	totalItems int,
	params PaginationParams,
) {
	totalItems = max(totalItems, 0)
	if params.Count < 1 {
		params.Count = DefaultPaginationCount
	}
	// ceil(totalItems / count)
	totalPages := (totalItems + params.Count - 1) / params.Count
	w.Header().Set(
		"X-Pagination-Count-Total",
		strconv.Itoa(totalItems),
	)
	w.Header().Set(
		"X-Pagination-Page-Total",
		strconv.Itoa(totalPages),
	)
}
