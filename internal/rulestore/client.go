// Package rulestore persists the per-user rule sets in Firestore. The
// store is the only thing that outlives a review session: draft records
// and column configs stay in memory, but rule edits are mirrored here so
// they survive a restart.
package rulestore

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/iterator"

	"github.com/rumor-ml/commons.systems/bankimport/internal/domain"
	"github.com/rumor-ml/commons.systems/bankimport/internal/ids"
	"github.com/rumor-ml/commons.systems/bankimport/internal/rules"
)

const (
	typeMappingCollection  = "import-type-mappings"
	merchantRuleCollection = "import-merchant-rules"
	transferRuleCollection = "import-transfer-rules"
)

// Client wraps Firestore with rule-store operations
type Client struct {
	Firestore *firestore.Client
	projectID string
}

// NewClient creates a new rule store client using application default
// credentials
func NewClient(ctx context.Context, projectID string) (*Client, error) {
	conf := &firebase.Config{ProjectID: projectID}

	app, err := firebase.NewApp(ctx, conf)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Client{
		Firestore: fsClient,
		projectID: projectID,
	}, nil
}

// Close closes the underlying Firestore client
func (c *Client) Close() error {
	return c.Firestore.Close()
}

// typeMappingDoc is the stored shape of a type-mapping rule
type typeMappingDoc struct {
	ID       string `firestore:"id"`
	UserID   string `firestore:"userId"`
	BankCode string `firestore:"bankCode"`
	MapsTo   string `firestore:"mapsTo"`
}

// merchantRuleDoc is the stored shape of a merchant rule
type merchantRuleDoc struct {
	ID        string `firestore:"id"`
	UserID    string `firestore:"userId"`
	SortOrder int    `firestore:"sortOrder"`

	MatchDescription    bool   `firestore:"matchDescription"`
	DescriptionContains string `firestore:"descriptionContains"`
	DescriptionMode     string `firestore:"descriptionMode"`
	MatchType           bool   `firestore:"matchType"`
	TypeEquals          string `firestore:"typeEquals"`
	MatchAmount         bool   `firestore:"matchAmount"`
	AmountEquals        float64 `firestore:"amountEquals"`

	SetDescription   string `firestore:"setDescription"`
	SetCategory      string `firestore:"setCategory"`
	SetType          string `firestore:"setType"`
	SetFromAccountID string `firestore:"setFromAccountId"`
	SetToAccountID   string `firestore:"setToAccountId"`
	SetNotes         string `firestore:"setNotes"`
}

// transferRuleDoc is the stored shape of a transfer rule
type transferRuleDoc struct {
	ID            string `firestore:"id"`
	UserID        string `firestore:"userId"`
	Label         string `firestore:"label"`
	FromContains  string `firestore:"fromContains"`
	ToContains    string `firestore:"toContains"`
	ToleranceDays int    `firestore:"toleranceDays"`
	SortOrder     int    `firestore:"sortOrder"`
}

// LoadRuleSet retrieves all three rule sets for a user. Merchant and
// transfer rules come back ordered by their explicit sort key, which is
// the evaluation order the engines rely on.
func (c *Client) LoadRuleSet(ctx context.Context, userID string) (*rules.RuleSet, error) {
	rs := &rules.RuleSet{}

	iter := c.Firestore.Collection(typeMappingCollection).
		Where("userId", "==", userID).
		Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate type mappings for user %s: %w", userID, err)
		}
		var d typeMappingDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse type mapping: %w", err)
		}
		rs.TypeMappings = append(rs.TypeMappings, rules.TypeMappingRule{
			ID:       d.ID,
			BankCode: d.BankCode,
			MapsTo:   domain.TransactionType(d.MapsTo),
		})
	}

	iter = c.Firestore.Collection(merchantRuleCollection).
		Where("userId", "==", userID).
		OrderBy("sortOrder", firestore.Asc).
		Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate merchant rules for user %s: %w", userID, err)
		}
		var d merchantRuleDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse merchant rule: %w", err)
		}
		rs.MerchantRules = append(rs.MerchantRules, merchantRuleFromDoc(&d))
	}

	iter = c.Firestore.Collection(transferRuleCollection).
		Where("userId", "==", userID).
		OrderBy("sortOrder", firestore.Asc).
		Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transfer rules for user %s: %w", userID, err)
		}
		var d transferRuleDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to parse transfer rule: %w", err)
		}
		rs.TransferRules = append(rs.TransferRules, rules.TransferRule{
			ID:            d.ID,
			Label:         d.Label,
			FromContains:  d.FromContains,
			ToContains:    d.ToContains,
			ToleranceDays: d.ToleranceDays,
			SortOrder:     d.SortOrder,
		})
	}

	return rs, nil
}

// ReplaceTypeMappings replaces a user's type mappings wholesale
func (c *Client) ReplaceTypeMappings(ctx context.Context, userID string, mappings []rules.TypeMappingRule) error {
	coll := c.Firestore.Collection(typeMappingCollection)
	if err := c.clearCollection(ctx, coll, userID); err != nil {
		return err
	}

	for _, m := range mappings {
		doc := coll.Doc(persistedID(coll, m.ID))
		d := typeMappingDoc{ID: doc.ID, UserID: userID, BankCode: m.BankCode, MapsTo: string(m.MapsTo)}
		if _, err := doc.Set(ctx, d); err != nil {
			return fmt.Errorf("failed to write type mapping %s: %w", m.BankCode, err)
		}
	}
	return nil
}

// ReplaceMerchantRules replaces a user's merchant rules wholesale,
// preserving list order via the sort key
func (c *Client) ReplaceMerchantRules(ctx context.Context, userID string, ruleList []rules.MerchantRule) error {
	coll := c.Firestore.Collection(merchantRuleCollection)
	if err := c.clearCollection(ctx, coll, userID); err != nil {
		return err
	}

	for i, r := range ruleList {
		r.SortOrder = i
		doc := coll.Doc(persistedID(coll, r.ID))
		r.ID = doc.ID
		if _, err := doc.Set(ctx, merchantRuleToDoc(&r, userID)); err != nil {
			return fmt.Errorf("failed to write merchant rule %s: %w", r.ID, err)
		}
	}
	return nil
}

// ReplaceTransferRules replaces a user's transfer rules wholesale
func (c *Client) ReplaceTransferRules(ctx context.Context, userID string, ruleList []rules.TransferRule) error {
	coll := c.Firestore.Collection(transferRuleCollection)
	if err := c.clearCollection(ctx, coll, userID); err != nil {
		return err
	}

	for i, r := range ruleList {
		doc := coll.Doc(persistedID(coll, r.ID))
		d := transferRuleDoc{
			ID:            doc.ID,
			UserID:        userID,
			Label:         r.Label,
			FromContains:  r.FromContains,
			ToContains:    r.ToContains,
			ToleranceDays: r.ToleranceDays,
			SortOrder:     i,
		}
		if _, err := doc.Set(ctx, d); err != nil {
			return fmt.Errorf("failed to write transfer rule %s: %w", doc.ID, err)
		}
	}
	return nil
}

// SaveMerchantRule inserts or updates a single merchant rule and returns
// its persisted identifier. A locally generated temporary ID is replaced
// with a store-assigned one on first save; the caller reconciles its
// in-memory rule with the returned ID.
func (c *Client) SaveMerchantRule(ctx context.Context, userID string, rule rules.MerchantRule) (string, error) {
	if err := rule.Validate(); err != nil {
		return "", fmt.Errorf("invalid merchant rule: %w", err)
	}

	coll := c.Firestore.Collection(merchantRuleCollection)
	doc := coll.Doc(persistedID(coll, rule.ID))
	rule.ID = doc.ID

	if _, err := doc.Set(ctx, merchantRuleToDoc(&rule, userID)); err != nil {
		return "", fmt.Errorf("failed to save merchant rule: %w", err)
	}
	return doc.ID, nil
}

// DeleteMerchantRule removes a single merchant rule by ID
func (c *Client) DeleteMerchantRule(ctx context.Context, id string) error {
	if _, err := c.Firestore.Collection(merchantRuleCollection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete merchant rule %s: %w", id, err)
	}
	return nil
}

// clearCollection deletes every document a user owns in a collection
func (c *Client) clearCollection(ctx context.Context, coll *firestore.CollectionRef, userID string) error {
	iter := coll.Where("userId", "==", userID).Documents(ctx)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to iterate %s for user %s: %w", coll.ID, userID, err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete %s/%s: %w", coll.ID, doc.Ref.ID, err)
		}
	}
	return nil
}

// persistedID maps a local rule ID to its document ID, minting a fresh
// store-assigned ID for temporaries
func persistedID(coll *firestore.CollectionRef, localID string) string {
	if localID == "" || ids.IsTempRuleID(localID) {
		return coll.NewDoc().ID
	}
	return localID
}

func merchantRuleToDoc(r *rules.MerchantRule, userID string) merchantRuleDoc {
	return merchantRuleDoc{
		ID:                  r.ID,
		UserID:              userID,
		SortOrder:           r.SortOrder,
		MatchDescription:    r.MatchDescription,
		DescriptionContains: r.DescriptionContains,
		DescriptionMode:     string(r.DescriptionMode),
		MatchType:           r.MatchType,
		TypeEquals:          string(r.TypeEquals),
		MatchAmount:         r.MatchAmount,
		AmountEquals:        r.AmountEquals,
		SetDescription:      r.SetDescription,
		SetCategory:         r.SetCategory,
		SetType:             string(r.SetType),
		SetFromAccountID:    r.SetFromAccountID,
		SetToAccountID:      r.SetToAccountID,
		SetNotes:            r.SetNotes,
	}
}

func merchantRuleFromDoc(d *merchantRuleDoc) rules.MerchantRule {
	return rules.MerchantRule{
		ID:                  d.ID,
		SortOrder:           d.SortOrder,
		MatchDescription:    d.MatchDescription,
		DescriptionContains: d.DescriptionContains,
		DescriptionMode:     rules.PatternMode(d.DescriptionMode),
		MatchType:           d.MatchType,
		TypeEquals:          domain.TransactionType(d.TypeEquals),
		MatchAmount:         d.MatchAmount,
		AmountEquals:        d.AmountEquals,
		SetDescription:      d.SetDescription,
		SetCategory:         d.SetCategory,
		SetType:             domain.TransactionType(d.SetType),
		SetFromAccountID:    d.SetFromAccountID,
		SetToAccountID:      d.SetToAccountID,
		SetNotes:            d.SetNotes,
	}
}
