package services

import (
	"encoding/xml"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/moov-io/iso20022/pkg/common"
	"github.com/moov-io/iso20022/pkg/pacs_v08"

	"github.com/hausbuch/backend/internal/config"
	"github.com/hausbuch/backend/internal/models"
)

// ExportService renders journal entries as ISO 20022 pacs.008 credit
// transfer messages for exchange with external accounting systems. The
// credit account of an entry maps to the debtor (value flows out of it) and
// the debit account to the creditor.
type ExportService struct {
	cfg config.LedgerConfig
}

func NewExportService(cfg config.LedgerConfig) *ExportService {
	return &ExportService{cfg: cfg}
}

// ExportJournalEntries renders the given entries into one pacs.008 document.
// Saldo checkpoints carry no value movement and are skipped.
func (s *ExportService) ExportJournalEntries(entries []models.JournalEntry, accountTitles map[string]string) (string, error) {
	transactions := make([]pacs_v08.CreditTransferTransaction39, 0, len(entries))
	var total float64

	for _, entry := range entries {
		if entry.IsSaldo {
			continue
		}
		transactions = append(transactions, s.creditTransfer(entry, accountTitles))
		total += amountToUnits(entry.Amount)
	}

	if len(transactions) == 0 {
		return "", fmt.Errorf("no exportable journal entries")
	}

	settlementDate := time.Now()
	doc := &pacs_v08.FIToFICustomerCreditTransferV08{
		GrpHdr: pacs_v08.GroupHeader93{
			MsgId:   common.Max35Text(uuid.New().String()),
			CreDtTm: common.ISODateTime(time.Now()),
			NbOfTxs: common.Max15NumericText(strconv.Itoa(len(transactions))),
			TtlIntrBkSttlmAmt: &pacs_v08.ActiveCurrencyAndAmount{
				Ccy:   common.ActiveCurrencyCode(s.cfg.Currency),
				Value: total,
			},
			IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
			SttlmInf: pacs_v08.SettlementInstruction7{
				SttlmMtd: "CLRG",
			},
		},
		CdtTrfTxInf: transactions,
	}

	xmlData, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal pacs.008: %w", err)
	}

	return xml.Header + string(xmlData), nil
}

func (s *ExportService) creditTransfer(entry models.JournalEntry, accountTitles map[string]string) pacs_v08.CreditTransferTransaction39 {
	settlementDate := entry.BookingTime

	debtorName := accountTitles[entry.CreditAccountID]
	if debtorName == "" {
		debtorName = entry.CreditAccountID
	}
	creditorName := accountTitles[entry.DebitAccountID]
	if creditorName == "" {
		creditorName = entry.DebitAccountID
	}

	return pacs_v08.CreditTransferTransaction39{
		PmtId: pacs_v08.PaymentIdentification7{
			InstrId:    &[]common.Max35Text{common.Max35Text(entry.ID)}[0],
			EndToEndId: common.Max35Text(fmt.Sprintf("RN-%d", entry.RunningNumber)),
			TxId:       &[]common.Max35Text{common.Max35Text(entry.ID)}[0],
		},
		IntrBkSttlmAmt: pacs_v08.ActiveCurrencyAndAmount{
			Ccy:   common.ActiveCurrencyCode(s.cfg.Currency),
			Value: amountToUnits(entry.Amount),
		},
		IntrBkSttlmDt: (*common.ISODate)(&settlementDate),
		ChrgBr:        "SLEV",
		DbtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
			FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
				BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(s.cfg.BankBIC)}[0],
			},
		},
		Dbtr: pacs_v08.PartyIdentification135{
			Nm: &[]common.Max140Text{common.Max140Text(debtorName)}[0],
		},
		CdtrAgt: pacs_v08.BranchAndFinancialInstitutionIdentification6{
			FinInstnId: pacs_v08.FinancialInstitutionIdentification18{
				BICFI: &[]common.BICFIDec2014Identifier{common.BICFIDec2014Identifier(s.cfg.BankBIC)}[0],
			},
		},
		Cdtr: pacs_v08.PartyIdentification135{
			Nm: &[]common.Max140Text{common.Max140Text(creditorName)}[0],
		},
	}
}

// amountToUnits converts smallest-unit amounts to major currency units as
// required by the ISO 20022 amount fields.
func amountToUnits(amount uint64) float64 {
	return float64(amount) / 100
}
