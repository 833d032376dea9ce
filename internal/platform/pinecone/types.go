package pinecone

import "strings"

// IndexDescription is the control-plane view of an index; Host is the
// data-plane address every vector call goes to.
type IndexDescription struct {
	Name      string `json:"name"`
	Host      string `json:"host"`
	Dimension int    `json:"dimension"`
	Metric    string `json:"metric"`
	Status    struct {
		Ready bool   `json:"ready"`
		State string `json:"state"`
	} `json:"status"`
}

type Vector struct {
	ID       string         `json:"id"`
	Values   []float32      `json:"values"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type UpsertRequest struct {
	Vectors   []Vector `json:"vectors"`
	Namespace string   `json:"namespace,omitempty"`
}

type UpsertResponse struct {
	UpsertedCount int64 `json:"upsertedCount"`
}

type QueryRequest struct {
	Namespace       string         `json:"namespace,omitempty"`
	Vector          []float32      `json:"vector,omitempty"`
	TopK            int            `json:"topK"`
	Filter          map[string]any `json:"filter,omitempty"`
	IncludeValues   bool           `json:"includeValues,omitempty"`
	IncludeMetadata bool           `json:"includeMetadata,omitempty"`
}

type QueryMatch struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Values   []float32      `json:"values,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type QueryResponse struct {
	Matches []QueryMatch `json:"matches"`
}

// DeleteRequest deletes by ids, by metadata filter, or everything in a
// namespace when DeleteAll is set.
type DeleteRequest struct {
	IDs       []string       `json:"ids,omitempty"`
	Filter    map[string]any `json:"filter,omitempty"`
	DeleteAll bool           `json:"deleteAll,omitempty"`
	Namespace string         `json:"namespace,omitempty"`
}

func (r DeleteRequest) empty() bool {
	return len(r.IDs) == 0 && len(r.Filter) == 0 && !r.DeleteAll
}

// ListRequest pages through ids sharing Prefix; the list endpoint is only
// available on serverless indexes.
type ListRequest struct {
	Prefix          string
	Namespace       string
	Limit           int
	PaginationToken string
}

type ListResponse struct {
	Vectors []struct {
		ID string `json:"id"`
	} `json:"vectors"`
	Pagination *struct {
		Next string `json:"next"`
	} `json:"pagination,omitempty"`
}

// IDs flattens the listed vector ids.
func (r *ListResponse) IDs() []string {
	if r == nil {
		return nil
	}
	out := make([]string, 0, len(r.Vectors))
	for _, v := range r.Vectors {
		if strings.TrimSpace(v.ID) != "" {
			out = append(out, v.ID)
		}
	}
	return out
}

// NextToken is empty on the last page.
func (r *ListResponse) NextToken() string {
	if r == nil || r.Pagination == nil {
		return ""
	}
	return r.Pagination.Next
}
