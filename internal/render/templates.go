package render

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Lawguy81/cnslr-legal-platform/internal/catalog"
	"github.com/Lawguy81/cnslr-legal-platform/internal/models"
)

const brand = "Generated by CNSLR Legal Platform"

// templateFunc builds a document from answers dated generatedOn.
type templateFunc func(f *filler, generatedOn time.Time) *Document

// templateFor selects the template for a known task type.
func templateFor(t catalog.TaskType) templateFunc {
	switch t {
	case catalog.ParkingTicket:
		return parkingTicketAppeal
	case catalog.SmallClaims:
		return smallClaimsFiling
	case catalog.DemandLetter:
		return demandLetter
	case catalog.NameChange:
		return nameChangePetition
	case catalog.LandlordDispute:
		return landlordDisputeLetter
	}
	panic(fmt.Sprintf("render: no template for task type %q", t))
}

var defenseReasons = map[string]string{
	"signage":           "The signage at this location was missing, obscured, or unclear",
	"meter-malfunction": "The parking meter was malfunctioning and would not accept payment",
	"medical-emergency": "There was a medical emergency that required immediate attention",
	"factual-error":     "The citation contains factual errors",
	"permit-valid":      "I had a valid parking permit that was not properly recognized",
	"vehicle-breakdown": "My vehicle experienced a mechanical breakdown",
	"other":             "Other circumstances as described below",
}

func parkingTicketAppeal(f *filler, on time.Time) *Document {
	today := on.Format(longDate)
	violation := placeholder("violationType")
	if v := f.raw("violationType"); v != "" {
		violation = strings.ReplaceAll(v, "-", " ")
	}

	d := newDocument("Parking Ticket Appeal").
		title("PARKING TICKET APPEAL").
		subtitle("Request for Administrative Review").
		field("Date", today).
		field("Citation Number", f.text("ticketNumber")).
		para("To Whom It May Concern:").
		justified(fmt.Sprintf(
			"I am writing to formally contest Parking Citation #%s, issued on %s at approximately %s for the alleged violation of %s.",
			f.text("ticketNumber"), f.date("ticketDate"), f.text("ticketTime"), violation)).
		heading("VEHICLE INFORMATION").
		field("License Plate", f.upper("vehiclePlate")).
		field("Vehicle", f.text("vehicleMake")).
		field("Location", f.text("location")).
		field("Fine Amount", f.money("fineAmount")).
		heading("REASON FOR APPEAL").
		para(f.choice("defenseType", defenseReasons, "I believe this citation was issued in error.")).
		heading("DETAILED EXPLANATION").
		justified(f.text("circumstances"))
	if f.has("defenseDetails") {
		d.justified(f.raw("defenseDetails"))
	}

	d.heading("SUPPORTING EVIDENCE").
		field("Photographs", attachedOrNot(f.yes("hasPhotos"))).
		field("Documents/Receipts", attachedOrNot(f.yes("hasReceipts")))
	if f.has("witnessInfo") {
		d.field("Witness Information", f.raw("witnessInfo"))
	}

	return d.heading("REQUEST").
		justified("Based on the facts and circumstances described above, I respectfully request that this citation be dismissed, or in the alternative, that the fine be reduced.").
		para("Thank you for your consideration of this appeal.").
		para("Respectfully submitted,").
		signature("Signature").
		signature("Printed Name").
		field("Date", today).
		footer(brand + " | This document should be reviewed for accuracy before submission")
}

func attachedOrNot(yes bool) string {
	if yes {
		return "Yes (attached)"
	}
	return "Not available"
}

func yesNo(yes bool) string {
	if yes {
		return "Yes"
	}
	return "No"
}

var claimTypes = map[string]string{
	"unpaid-debt":       "Money owed (unpaid debt)",
	"property-damage":   "Property damage",
	"security-deposit":  "Security deposit",
	"defective-product": "Defective product or service",
	"contract-breach":   "Breach of contract",
	"other":             "Other",
}

func smallClaimsFiling(f *filler, on time.Time) *Document {
	total := placeholder("totalClaim")
	principal, okP := f.number("amountOwed")
	extra, _ := f.number("additionalCosts")
	if okP {
		total = formatMoney(principal + extra)
	}
	additional := "$0.00"
	if f.has("additionalCosts") {
		additional = f.money("additionalCosts")
	}

	d := newDocument("Small Claims Filing").
		title("SMALL CLAIMS COURT").
		subtitle("Plaintiff's Claim and ORDER to Go to Small Claims Court").
		aligned("CASE NUMBER: _____________________", AlignRight).
		heading("PLAINTIFF (Person filing claim)").
		field("Name", f.text("plaintiffName")).
		field("Address", f.text("plaintiffAddress")).
		field("City, State, ZIP", f.cityLine("plaintiffCity", "plaintiffState", "plaintiffZip")).
		field("Phone", f.text("plaintiffPhone")).
		field("Email", f.text("plaintiffEmail")).
		heading("DEFENDANT (Person being sued)").
		field("Name", f.text("defendantName")).
		field("Address", f.text("defendantAddress")).
		field("City, State, ZIP", f.cityLine("defendantCity", "defendantState", "defendantZip")).
		heading("CLAIM DETAILS").
		field("Type of Claim", f.choice("claimCategory", claimTypes, f.raw("claimCategory"))).
		field("Date of Incident", f.date("incidentDate")).
		heading("AMOUNT CLAIMED").
		field("Principal Amount", f.money("amountOwed")).
		field("Additional Costs", additional).
		field("Interest Claimed", yesNo(f.yes("interestClaimed"))).
		add(Block{Kind: BlockField, Label: "TOTAL CLAIM", Text: total, Bold: true}).
		heading("DESCRIPTION OF CLAIM").
		justified(f.text("claimDescription")).
		heading("PRIOR DEMAND").
		field("Demand made before filing", yesNo(f.yes("demandMade")))
	if f.has("demandDetails") {
		d.justified(f.raw("demandDetails"))
	}

	return d.heading("BASIS FOR DAMAGES").
		justified(f.text("damagesExplanation")).
		heading("DECLARATION").
		justified("I declare under penalty of perjury under the laws of this state that the foregoing is true and correct.").
		signature("Plaintiff's Signature", "Date: "+on.Format(longDate)).
		footer(brand + " | Review local court requirements before filing")
}

var demandSubjects = map[string]string{
	"payment":      "FORMAL DEMAND FOR PAYMENT",
	"action":       "FORMAL DEMAND FOR ACTION",
	"cease-desist": "CEASE AND DESIST DEMAND",
	"refund":       "FORMAL DEMAND FOR REFUND",
}

func demandLetter(f *filler, on time.Time) *Document {
	days := placeholder("deadlineDays")
	deadline := placeholder("deadlineDate")
	if n, ok := f.integer("deadlineDays"); ok {
		days = fmt.Sprint(n)
		deadline = on.AddDate(0, 0, n).Format(longDate)
	}

	d := newDocument("Demand Letter").
		aligned(f.text("senderName"), AlignRight).
		aligned(f.text("senderAddress"), AlignRight).
		aligned(f.cityLine("senderCity", "senderState", "senderZip"), AlignRight).
		aligned(f.text("senderPhone"), AlignRight).
		aligned(f.text("senderEmail"), AlignRight).
		aligned(on.Format(longDate), AlignRight).
		para(f.text("recipientName"))
	if f.has("recipientCompany") {
		d.para(f.raw("recipientCompany"))
	}
	d.para(f.text("recipientAddress")).
		para(f.cityLine("recipientCity", "recipientState", "recipientZip")).
		heading("Re: "+f.choice("demandType", demandSubjects, "FORMAL DEMAND")).
		para(fmt.Sprintf("Dear %s,", f.text("recipientName"))).
		justified("This letter serves as a formal demand pursuant to applicable law. Please treat this matter with the utmost seriousness.").
		heading("BACKGROUND").
		justified(f.text("backgroundFacts")).
		heading("DEMAND").
		justified(f.text("specificDemand"))
	if f.has("amountDemanded") {
		d.add(Block{Kind: BlockField, Label: "Amount Demanded", Text: f.money("amountDemanded"), Bold: true})
	}

	return d.heading("DEADLINE").
		justified(fmt.Sprintf("You must comply with this demand within %s days of receipt of this letter, no later than %s.", days, deadline)).
		heading("CONSEQUENCES OF NON-COMPLIANCE").
		justified(f.text("consequenceWarning")).
		justified("Please govern yourself accordingly. I expect your prompt attention to this matter.").
		para("Sincerely,").
		signature(f.text("senderName")).
		footer("SENT VIA CERTIFIED MAIL, RETURN RECEIPT REQUESTED").
		footer(brand)
}

var nameChangeReasons = map[string]string{
	"marriage":  "marriage",
	"divorce":   "divorce and desire to return to former name",
	"personal":  "personal preference",
	"gender":    "gender identity",
	"religious": "religious or cultural reasons",
	"other":     "the following reason",
}

func nameChangePetition(f *filler, on time.Time) *Document {
	current := f.name("currentFirstName", "currentMiddleName", "currentLastName")
	requested := f.name("newFirstName", "newMiddleName", "newLastName")

	d := newDocument("Petition for Change of Name").
		title("PETITION FOR CHANGE OF NAME").
		subtitle("In the Matter of the Application of").
		add(Block{Kind: BlockParagraph, Text: current, Align: AlignCenter, Bold: true}).
		aligned("Petitioner", AlignCenter).
		para("TO THE HONORABLE COURT:").
		justified("Petitioner respectfully represents to the Court as follows:")

	n := 0
	num := func(s string) string {
		n++
		return fmt.Sprintf("%d. %s", n, s)
	}

	d.para(num(fmt.Sprintf("Petitioner's current legal name is %s.", current))).
		para(num(fmt.Sprintf("Petitioner was born on %s in %s.", f.date("dateOfBirth"), f.text("birthPlace")))).
		para(num(fmt.Sprintf("Petitioner currently resides at %s, %s, and has resided there for %s year(s).",
			f.text("currentAddress"), f.cityLine("currentCity", "currentState", "currentZip"), f.text("yearsAtAddress")))).
		para(num(fmt.Sprintf("Petitioner desires to change their legal name to: %s.", requested))).
		para(num(fmt.Sprintf("The reason for this name change is %s:", f.choice("reasonCategory", nameChangeReasons, "as follows")))).
		indented(f.text("reasonExplanation")).
		para(num("This name change is not sought for any fraudulent purpose, to escape debts, or for any illegal purpose."))

	felony := "has not"
	if f.yes("hasFelony") {
		felony = "has"
	}
	d.para(num(fmt.Sprintf("Petitioner %s been convicted of a felony.", felony)))
	if f.yes("hasFelony") && f.has("felonyDetails") {
		d.indented(f.raw("felonyDetails"))
	}

	bankruptcy := "has not"
	if f.yes("hasBankruptcy") {
		bankruptcy = "has"
	}
	support := "does not have"
	if f.yes("hasChildSupport") {
		support = "has"
	}
	d.para(num(fmt.Sprintf("Petitioner %s filed for bankruptcy in the past 7 years.", bankruptcy))).
		para(num(fmt.Sprintf("Petitioner %s outstanding child support obligations.", support)))

	return d.bold("WHEREFORE, Petitioner prays that this Court:").
		list(
			"1. Grant this Petition for Change of Name;",
			fmt.Sprintf("2. Order that Petitioner's name be changed from %s to %s;", current, requested),
			"3. Grant such other and further relief as the Court deems just and proper.",
		).
		heading("VERIFICATION").
		justified("I declare under penalty of perjury that the foregoing is true and correct.").
		signature("Petitioner's Signature", "Date: "+on.Format(longDate)).
		field("Printed Name", current).
		footer(brand + " | Check local court requirements for filing procedures")
}

var landlordSubjects = map[string]string{
	"repairs":         "FORMAL NOTICE: REQUEST FOR REPAIRS",
	"deposit":         "FORMAL NOTICE: SECURITY DEPOSIT DEMAND",
	"habitability":    "FORMAL NOTICE: HABITABILITY ISSUES",
	"privacy":         "FORMAL NOTICE: PRIVACY VIOLATION",
	"lease-violation": "FORMAL NOTICE: LEASE VIOLATION",
	"illegal-fees":    "FORMAL NOTICE: ILLEGAL FEES",
	"other":           "FORMAL NOTICE: LANDLORD-TENANT DISPUTE",
}

func landlordDisputeLetter(f *filler, on time.Time) *Document {
	unit := ""
	if f.has("unitNumber") {
		unit = "Unit " + f.raw("unitNumber") + ", "
	}
	property := f.text("rentalAddress") + ", " + unit + f.cityLine("rentalCity", "rentalState", "rentalZip")

	d := newDocument("Landlord Dispute Letter").
		para(on.Format(longDate)).
		para("SENT VIA CERTIFIED MAIL").
		para("RETURN RECEIPT REQUESTED").
		para(f.text("landlordName")).
		para(f.text("landlordAddress")).
		heading("Re: "+f.choice("disputeCategory", landlordSubjects, "FORMAL NOTICE")).
		field("Property", property).
		para(fmt.Sprintf("Dear %s,", f.text("landlordName"))).
		justified(fmt.Sprintf("I am the tenant at the above-referenced property. My lease commenced on %s, and my current monthly rent is %s.",
			f.date("leaseStartDate"), f.money("monthlyRent"))).
		justified(fmt.Sprintf("This letter serves as formal notice regarding the following issue that first arose on %s:", f.date("issueStartDate"))).
		heading("DESCRIPTION OF ISSUE").
		justified(f.text("issueDescription"))

	switch f.raw("previousNotice") {
	case "yes-written", "yes-verbal":
		how := "verbally"
		if f.raw("previousNotice") == "yes-written" {
			how = "in writing"
		}
		d.justified(fmt.Sprintf("Please be advised that I previously notified you of this issue %s on %s.", how, f.date("noticeDate")))
		if f.has("landlordResponse") {
			d.justified("Your response was: " + f.raw("landlordResponse"))
		}
	}

	return d.heading("REQUESTED RESOLUTION").
		justified(f.text("desiredResolution")).
		justified("Please respond to this notice within 14 days. Failure to address this matter may result in further action, including but not limited to: filing a complaint with the local housing authority, withholding rent as permitted by law, or pursuing legal remedies in court.").
		justified("I am prepared to resolve this matter amicably and look forward to your prompt response.").
		para("Sincerely,").
		signature(f.text("tenantName"), property).
		aligned("CC: File Copy", AlignLeft).
		footer(brand + " | Keep a copy of this letter and the certified mail receipt")
}

// genericDocument lists every answer under a humanized label. It serves task
// ids that have no dedicated template.
func genericDocument(taskID string, answers models.Answers, on time.Time) *Document {
	d := newDocument("Legal Document").
		title("LEGAL DOCUMENT").
		subtitle("Document Type: "+taskID).
		field("Generated", on.Format(longDate)).
		field("Reference", fmt.Sprintf("CNSLR-%s-%s", strings.ToUpper(taskID), on.Format("20060102"))).
		heading("SUBMITTED INFORMATION")

	keys := make([]string, 0, len(answers))
	for k := range answers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		value := answers.String(k)
		if b, ok := answers[k].(bool); ok {
			value = yesNo(b)
		}
		d.field(humanize(k), value)
	}
	return d.footer(brand)
}
