package store

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/dgallion1/guidekb/internal/model"
)

// GraphQL plumbing: queries are assembled as strings against the /v1/graphql
// endpoint. Filters compose through the where* helpers below so every query
// carries its doc_id scope and optional caller filters inside the where
// clause, never as post-filtering.

type gqlRequest struct {
	Query string `json:"query"`
}

type gqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

func (c *Client) graphQL(ctx context.Context, query string, out any) error {
	var resp gqlResponse
	if _, err := c.do(ctx, http.MethodPost, "/v1/graphql", gqlRequest{Query: query}, &resp); err != nil {
		return err
	}
	if len(resp.Errors) > 0 {
		return fmt.Errorf("graphql: %s", resp.Errors[0].Message)
	}
	if out != nil && len(resp.Data) > 0 {
		if err := json.Unmarshal(resp.Data, out); err != nil {
			return fmt.Errorf("decode graphql data: %w", err)
		}
	}
	return nil
}

// gqlString quotes a user-supplied string for embedding in a GraphQL
// query. Go quoting is compatible with GraphQL string literals here.
func gqlString(s string) string {
	return strconv.Quote(s)
}

func whereEqText(field, value string) string {
	return fmt.Sprintf(`{path:[%q],operator:Equal,valueText:%s}`, field, strconv.Quote(value))
}

func whereEqInt(field string, value int) string {
	return fmt.Sprintf(`{path:[%q],operator:Equal,valueInt:%d}`, field, value)
}

func whereLikePrefix(field, prefix string) string {
	return fmt.Sprintf(`{path:[%q],operator:Like,valueText:%s}`, field, strconv.Quote(prefix+"*"))
}

func whereContainsAny(field string, values []string) string {
	quoted := make([]string, len(values))
	for i, v := range values {
		quoted[i] = strconv.Quote(v)
	}
	return fmt.Sprintf(`{path:[%q],operator:ContainsAny,valueText:[%s]}`, field, strings.Join(quoted, ","))
}

func whereGTEInt(field string, value int) string {
	return fmt.Sprintf(`{path:[%q],operator:GreaterThanEqual,valueInt:%d}`, field, value)
}

func whereLTEInt(field string, value int) string {
	return fmt.Sprintf(`{path:[%q],operator:LessThanEqual,valueInt:%d}`, field, value)
}

func whereAnd(operands ...string) string {
	if len(operands) == 1 {
		return operands[0]
	}
	return fmt.Sprintf(`{operator:And,operands:[%s]}`, strings.Join(operands, ","))
}

// chunkWhere combines the mandatory doc scope with optional query filters.
func chunkWhere(docID string, f model.QueryFilters, extra ...string) string {
	conds := append([]string{whereEqText("doc_id", docID)}, extra...)
	if f.SectionPrefix != "" {
		conds = append(conds, whereLikePrefix("section_path", f.SectionPrefix))
	}
	if len(f.Types) > 0 {
		types := make([]string, len(f.Types))
		for i, t := range f.Types {
			types[i] = string(t)
		}
		conds = append(conds, whereContainsAny("chunk_type", types))
	}
	if f.PageStart > 0 {
		conds = append(conds, whereGTEInt("page_start", f.PageStart))
	}
	if f.PageEnd > 0 {
		conds = append(conds, whereLTEInt("page_end", f.PageEnd))
	}
	return whereAnd(conds...)
}

func vectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.FormatFloat(float64(v), 'g', -1, 32))
	}
	sb.WriteByte(']')
	return sb.String()
}

const chunkFields = `chunk_id doc_id section_path order page_start page_end chunk_text chunk_type entity_mentions`

// chunkObject mirrors the GraphQL chunk selection. Weaviate returns bm25
// scores as strings inside _additional, distances as numbers.
type chunkObject struct {
	ChunkID        string   `json:"chunk_id"`
	DocID          string   `json:"doc_id"`
	SectionPath    string   `json:"section_path"`
	Order          int      `json:"order"`
	PageStart      int      `json:"page_start"`
	PageEnd        int      `json:"page_end"`
	ChunkText      string   `json:"chunk_text"`
	ChunkType      string   `json:"chunk_type"`
	EntityMentions []string `json:"entity_mentions"`
	Additional     struct {
		Score    string   `json:"score"`
		Distance *float64 `json:"distance"`
	} `json:"_additional"`
}

type chunkGetResponse struct {
	Get struct {
		Chunk []chunkObject `json:"Chunk"`
	} `json:"Get"`
}

func (o chunkObject) toRecord(source string) model.ChunkRecord {
	score := 0.0
	if o.Additional.Score != "" {
		if parsed, err := strconv.ParseFloat(o.Additional.Score, 64); err == nil {
			score = parsed
		}
	} else if o.Additional.Distance != nil {
		score = 1.0 - *o.Additional.Distance
	}
	return model.ChunkRecord{
		ChunkID:        o.ChunkID,
		DocID:          o.DocID,
		SectionPath:    o.SectionPath,
		Order:          o.Order,
		PageStart:      o.PageStart,
		PageEnd:        o.PageEnd,
		Type:           model.ParseChunkType(o.ChunkType),
		Text:           o.ChunkText,
		EntityMentions: o.EntityMentions,
		Score:          score,
		Source:         source,
	}
}
