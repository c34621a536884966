// SPDX-License-Identifier: Apache-2.0

package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasJinja(t *testing.T) {
	assert.True(t, HasJinja("select * from {{ ref('orders') }}"))
	assert.True(t, HasJinja("{% set x = 1 %}"))
	assert.True(t, HasJinja("{# a comment #}"))
	assert.False(t, HasJinja("select * from orders"))
}

func TestPreprocessNoJinjaPassthrough(t *testing.T) {
	p := WithDefaults()
	sql := "select * from orders"

	result, err := p.Preprocess(sql, nil)

	require.NoError(t, err)
	assert.False(t, result.HadJinja)
	assert.Equal(t, sql, result.RenderedSQL)
}

func TestPreprocessSimpleRef(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("select * from {{ ref('my_table') }}", nil)

	require.NoError(t, err)
	assert.True(t, result.HadJinja)
	assert.Equal(t, "select * from my_table", result.RenderedSQL)
}

func TestPreprocessTwoArgRef(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("select * from {{ ref('other_pkg', 'orders') }}", nil)

	require.NoError(t, err)
	assert.Equal(t, "select * from orders", result.RenderedSQL)
}

func TestPreprocessSource(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("select * from {{ source('raw', 'customers') }}", nil)

	require.NoError(t, err)
	assert.Equal(t, "select * from raw.customers", result.RenderedSQL)
}

func TestPreprocessVarWithDefault(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("select {{ var('lookback_days', '7') }}", nil)

	require.NoError(t, err)
	assert.Equal(t, "select 7", result.RenderedSQL)
}

func TestPreprocessVarFromContext(t *testing.T) {
	p := New(NewContext(map[string]string{"lookback_days": "14"}))

	result, err := p.Preprocess("select {{ var('lookback_days') }}", nil)

	require.NoError(t, err)
	assert.Equal(t, "select 14", result.RenderedSQL)
}

func TestPreprocessUndefinedVariableErrors(t *testing.T) {
	p := WithDefaults()

	_, err := p.Preprocess("select {{ var('missing') }}", nil)

	require.Error(t, err)
	var undef *UndefinedVariableError
	require.ErrorAs(t, err, &undef)
	assert.Equal(t, "missing", undef.Name)
}

func TestPreprocessCommentRemoval(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("{#- a comment -#}\nselect * from orders", nil)

	require.NoError(t, err)
	assert.Equal(t, "select * from orders", strings.TrimSpace(result.RenderedSQL))
}

func TestPreprocessConfigProducesNoOutput(t *testing.T) {
	p := WithDefaults()

	result, err := p.Preprocess("{{ config(materialized='table') }}\nselect 1", nil)

	require.NoError(t, err)
	assert.Equal(t, "\nselect 1", result.RenderedSQL)
}

func TestPreprocessUnknownFunctionErrors(t *testing.T) {
	p := WithDefaults()

	_, err := p.Preprocess("select {{ unknown_fn('x') }}", nil)

	require.Error(t, err)
	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
}
