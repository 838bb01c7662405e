package service

import (
	"fmt"
	"os"
	"strings"

	"github.com/grachmannico95/einvoice-sync/internal/domain"
	"gopkg.in/yaml.v3"
)

type Categorizer interface {
	Categorize(sellerName string) domain.Category
}

type CategoryRule struct {
	Category domain.Category `yaml:"name"`
	Keywords []string        `yaml:"keywords"`
}

type CategoryRulesFile struct {
	Default    domain.Category `yaml:"default"`
	Categories []CategoryRule  `yaml:"categories"`
}

// KeywordCategorizer matches seller names against ordered keyword rules.
// The first rule with a keyword contained in the name wins.
type KeywordCategorizer struct {
	rules    []CategoryRule
	fallback domain.Category
}

func DefaultCategoryRules() []CategoryRule {
	return []CategoryRule{
		{Category: domain.CategoryFood, Keywords: []string{"7-11", "統一超商", "全家", "萊爾富", "OK超商", "familymart"}},
		{Category: domain.CategoryTransport, Keywords: []string{"中油", "台塑石油", "加油站", "全國加油"}},
		{Category: domain.CategoryMedical, Keywords: []string{"醫院", "診所", "藥局"}},
		{Category: domain.CategoryEducation, Keywords: []string{"書局", "補習", "文具"}},
	}
}

func NewKeywordCategorizer(rules []CategoryRule, fallback domain.Category) *KeywordCategorizer {
	if !fallback.Valid() {
		fallback = domain.CategoryShopping
	}

	normalized := make([]CategoryRule, 0, len(rules))
	for _, rule := range rules {
		keywords := make([]string, 0, len(rule.Keywords))
		for _, k := range rule.Keywords {
			if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
				keywords = append(keywords, k)
			}
		}
		normalized = append(normalized, CategoryRule{Category: rule.Category, Keywords: keywords})
	}

	return &KeywordCategorizer{rules: normalized, fallback: fallback}
}

func (c *KeywordCategorizer) Categorize(sellerName string) domain.Category {
	name := strings.ToLower(sellerName)
	for _, rule := range c.rules {
		for _, keyword := range rule.Keywords {
			if strings.Contains(name, keyword) {
				return rule.Category
			}
		}
	}
	return c.fallback
}

// LoadCategorizer builds a categorizer from a YAML rules file, or the built-in
// table when path is empty.
func LoadCategorizer(path string) (*KeywordCategorizer, error) {
	if path == "" {
		return NewKeywordCategorizer(DefaultCategoryRules(), domain.CategoryShopping), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read category rules: %w", err)
	}

	var file CategoryRulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse category rules: %w", err)
	}

	for _, rule := range file.Categories {
		if !rule.Category.Valid() {
			return nil, fmt.Errorf("unknown category %q in %s", rule.Category, path)
		}
	}

	return NewKeywordCategorizer(file.Categories, file.Default), nil
}
