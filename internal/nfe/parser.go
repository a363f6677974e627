// Package nfe parses fiscal invoice XML files and derives the signed stock
// deltas they imply.
package nfe

import (
	"encoding/xml"
	"strings"

	"github.com/shopspring/decimal"

	pkgerrors "github.com/estoque-mci/estoque-api/pkg/errors"
)

// Invoice is the subset of an NFe document the stock pipeline depends on.
type Invoice struct {
	Number          string     `json:"number"`
	Series          string     `json:"series"`
	EmittedAt       string     `json:"emitted_at"`
	OperationNature string     `json:"operation_nature"`
	DocumentType    int        `json:"document_type"`
	EmitterCNPJ     string     `json:"emitter_cnpj"`
	ReceiverCNPJ    string     `json:"receiver_cnpj"`
	Items           []LineItem `json:"items"`
}

// LineItem is one product line of an invoice.
type LineItem struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
	CFOP        string `json:"cfop"`
}

// The root element varies between bare <NFe> and the <nfeProc> wrapper the
// authorization flow produces; both carry the same infNFe subtree.
type xmlRoot struct {
	InfNFe *xmlInfNFe `xml:"infNFe"`
	NFe    *struct {
		InfNFe *xmlInfNFe `xml:"infNFe"`
	} `xml:"NFe"`
}

type xmlInfNFe struct {
	Ide struct {
		NNF   string `xml:"nNF"`
		Serie string `xml:"serie"`
		DhEmi string `xml:"dhEmi"`
		TpNF  int    `xml:"tpNF"`
		NatOp string `xml:"natOp"`
	} `xml:"ide"`
	Emit struct {
		CNPJ string `xml:"CNPJ"`
	} `xml:"emit"`
	Dest struct {
		CNPJ string `xml:"CNPJ"`
	} `xml:"dest"`
	Det []struct {
		Prod struct {
			CProd string `xml:"cProd"`
			XProd string `xml:"xProd"`
			QCom  string `xml:"qCom"`
			CFOP  string `xml:"CFOP"`
		} `xml:"prod"`
	} `xml:"det"`
}

// Parse decodes one NFe XML document. A document without an infNFe element is
// rejected; in a multi-file batch the caller keeps processing sibling files.
func Parse(data []byte) (*Invoice, error) {
	var root xmlRoot
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "XML inválido")
	}

	info := root.InfNFe
	if info == nil && root.NFe != nil {
		info = root.NFe.InfNFe
	}
	if info == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "XML sem elemento infNFe")
	}

	invoice := &Invoice{
		Number:          strings.TrimSpace(info.Ide.NNF),
		Series:          strings.TrimSpace(info.Ide.Serie),
		EmittedAt:       strings.TrimSpace(info.Ide.DhEmi),
		OperationNature: strings.TrimSpace(info.Ide.NatOp),
		DocumentType:    info.Ide.TpNF,
		EmitterCNPJ:     strings.TrimSpace(info.Emit.CNPJ),
		ReceiverCNPJ:    strings.TrimSpace(info.Dest.CNPJ),
	}

	for _, det := range info.Det {
		quantity, err := parseQuantity(det.Prod.QCom)
		if err != nil {
			return nil, err
		}
		invoice.Items = append(invoice.Items, LineItem{
			Code:        strings.TrimSpace(det.Prod.CProd),
			Description: strings.TrimSpace(det.Prod.XProd),
			Quantity:    quantity,
			CFOP:        strings.TrimSpace(det.Prod.CFOP),
		})
	}
	return invoice, nil
}

// parseQuantity reads the fiscal decimal quantity ("5.0000") as a whole unit
// count, rounding half up.
func parseQuantity(raw string) (int, error) {
	value, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "quantidade inválida")
	}
	return int(value.Round(0).IntPart()), nil
}

// IsTransferNature reports whether the free-text operation nature marks the
// invoice as a transfer between the company's own branches. The rule is a
// case-insensitive substring match; it lives here so call sites survive a
// future hardening of the matching.
func IsTransferNature(natOp string) bool {
	return strings.Contains(strings.ToLower(natOp), "transfer")
}
