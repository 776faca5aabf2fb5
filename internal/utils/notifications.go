package utils

import (
	"fmt"
	"log"

	"sepettakip_back_end/internal/models"
)

// SendRequestDecisionEmail notifie le client de l'issue de sa demande.
// Appelé en fire-and-forget depuis les handlers : un échec d'envoi ne remet
// jamais en cause la décision.
func SendRequestDecisionEmail(req *models.Request, userEmail string) error {
	subject := getDecisionEmailSubject(req)
	html := generateDecisionEmailHTML(req)

	if err := SendNotificationEmail(userEmail, subject, html); err != nil {
		log.Printf("❌ Erreur envoi email décision: %v", err)
		return err
	}

	log.Printf("📧 Email de décision envoyé: %s → %s", req.Status, userEmail)
	return nil
}

func getDecisionEmailSubject(req *models.Request) string {
	kindLabel := "annulation"
	if req.Kind == models.RequestKindRefund {
		kindLabel = "remboursement"
	}

	switch req.Status {
	case models.RequestStatusAutoApproved:
		return fmt.Sprintf("✅ Votre demande d'%s a été approuvée automatiquement - SepetTakip", kindLabel)
	case models.RequestStatusApproved:
		return fmt.Sprintf("✅ Votre demande d'%s a été approuvée - SepetTakip", kindLabel)
	case models.RequestStatusPartialApproved:
		return "💰 Remboursement partiel approuvé - SepetTakip"
	case models.RequestStatusRejected:
		return fmt.Sprintf("❌ Votre demande d'%s a été refusée - SepetTakip", kindLabel)
	default:
		return fmt.Sprintf("📋 Votre demande d'%s est en cours d'examen - SepetTakip", kindLabel)
	}
}

func generateDecisionEmailHTML(req *models.Request) string {
	message := decisionMessage(req)

	detailRows := ""
	if req.Kind == models.RequestKindRefund && req.ApprovedAmount != nil {
		detailRows += fmt.Sprintf(`
				<tr>
					<td style="padding: 8px 0; color: #666666;">Montant remboursé</td>
					<td style="padding: 8px 0; color: #333333; text-align: right;">%.2f€</td>
				</tr>`, *req.ApprovedAmount)
	}
	if req.Kind == models.RequestKindCancellation && req.CancellationFee > 0 {
		detailRows += fmt.Sprintf(`
				<tr>
					<td style="padding: 8px 0; color: #666666;">Frais d'annulation</td>
					<td style="padding: 8px 0; color: #333333; text-align: right;">%.2f€</td>
				</tr>`, req.CancellationFee)
	}
	if req.BusinessNotes != "" {
		detailRows += fmt.Sprintf(`
				<tr>
					<td style="padding: 8px 0; color: #666666;">Note du commerçant</td>
					<td style="padding: 8px 0; color: #333333; text-align: right;">%s</td>
				</tr>`, req.BusinessNotes)
	}

	return fmt.Sprintf(`
<!DOCTYPE html>
<html lang="fr">
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
	<title>Mise à jour de votre demande</title>
</head>
<body style="font-family: Arial, sans-serif; background-color: #f9f9f9; padding: 20px;">
	<div style="max-width: 600px; margin: auto; background-color: white; padding: 20px; border-radius: 10px;">
		<h2 style="color: #333;">Mise à jour de votre demande</h2>
		<p>Bonjour,</p>
		<p>%s</p>

		<table style="width: 100%%; border-collapse: collapse; margin: 20px 0;">
			<tbody>
				<tr>
					<td style="padding: 8px 0; color: #666666;">Numéro de demande</td>
					<td style="padding: 8px 0; color: #333333; text-align: right;">#%s</td>
				</tr>
				<tr>
					<td style="padding: 8px 0; color: #666666;">Commande</td>
					<td style="padding: 8px 0; color: #333333; text-align: right;">#%s</td>
				</tr>%s
			</tbody>
		</table>

		<p style="margin-top: 30px; color: #555;">
			Cordialement,<br>
			<strong>L'équipe SepetTakip</strong>
		</p>
	</div>
</body>
</html>`, message, req.ID, req.OrderID, detailRows)
}

func decisionMessage(req *models.Request) string {
	switch req.Status {
	case models.RequestStatusAutoApproved:
		if req.Kind == models.RequestKindRefund {
			return "Votre demande de remboursement a été approuvée automatiquement selon la politique du commerçant. Le remboursement sera traité sous peu."
		}
		return "Votre demande d'annulation a été approuvée automatiquement. Votre commande est annulée."
	case models.RequestStatusApproved:
		if req.Kind == models.RequestKindRefund {
			return "Votre demande de remboursement a été approuvée par le commerçant. Le remboursement sera traité sous peu."
		}
		return "Votre demande d'annulation a été approuvée. Votre commande est annulée."
	case models.RequestStatusPartialApproved:
		return "Le commerçant a approuvé un remboursement partiel de votre commande."
	case models.RequestStatusRejected:
		return "Votre demande a été refusée par le commerçant."
	default:
		return "Votre demande a bien été enregistrée et sera examinée par le commerçant."
	}
}
