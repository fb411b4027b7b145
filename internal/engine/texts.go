package engine

// User-facing copy. Kept in Spanish to match the product; placeholders
// are filled with fmt.Sprintf-style verbs at the call site.
const (
	textWelcomeName       = "¡Hola! Soy el asistente virtual de KIQ. Para empezar, ¿cómo te llamas?"
	textWelcomeBack       = "¡Hola de nuevo, %s! Cuéntame qué necesitas montar para tu nuevo trabajo."
	textWelcomeWithPrompt = "¡Hola! Veo que quieres cotizar: \"%s\". Para darte el precio exacto, primero dime: ¿cómo te llamas?"

	textNiceToMeetYouNoted = "¡Encantado, %s! He tomado nota de que necesitas: \"%s\"."
	textNiceToMeetYouAsk   = "¡Encantado, %s! ¿Qué necesitas montar hoy? (Ej: Un armario, una mesa...)"

	textAskForPhoto   = "¿Quieres añadir una foto para que el presupuesto sea más preciso?"
	textYesAddPhoto   = "Sí, añadir foto"
	textNoContinue    = "No, continuar solo con texto"
	textFilesUploaded = "🖼️ Archivo/s subido/s: %s"

	textAskDescriptionAfterPhoto = "¡Foto/s recibida/s! Ahora, añade una breve descripción (o pulsa enviar)."
	textProcessingImage          = "Analizando la/s imagen/es, un momento..."
	textProcessingDescription    = "Analizando tu descripción..."
	textProcessingAddress        = "Calculando la ruta..."

	textAnalysisError   = "Hubo un error de conexión o análisis. Inténtalo de nuevo."
	textPricingError    = "Lo siento, ha habido un problema al procesar la imagen. Inténtalo de nuevo."
	textRestartButton   = "Calcular otro presupuesto"
	textInvalidQuantity = "Por favor, introduce un número válido mayor a cero."

	textGreetingDetected = "¡Hola! 👋 Soy tu asistente de montajes. Cuéntame, ¿qué muebles necesitas montar hoy? (Ej: 'Un armario PAX', 'Una cómoda')"
	textUnknownItem      = "Lo siento, no he entendido qué mueble es ese. ¿Podrías intentar describirlo de otra forma?"
	textAskDoorType      = "Entendido, es un armario. Para darte el precio exacto, ¿cómo son las puertas?"
	textAskDoorCount     = "Perfecto. ¿Cuántas puertas/cuerpos tiene el armario?"
	textAskExactDoors    = "Entendido. Por favor, escribe el número exacto de puertas:"
	textAskQuantity      = "¡Ups! Para darte el precio exacto, necesito una cantidad específica de %s. Por favor, indica SÓLO la cantidad de unidades que deseas montar (Ej: '2')."

	textFinalQuestion = "Entendido. Una última pregunta: ¿el mueble (o alguno de ellos) necesita anclarse a la pared?"
	textYes           = "Sí"
	textNo            = "No"
	textAskAddress    = "Perfecto. Por último, para calcular el desplazamiento, ¿podrías indicarme tu código postal o la zona/barrio de Málaga?"

	textConfirmPublish = "Perfecto. Tu precio estimado es de %s. ¿Guardamos este presupuesto en tu panel para que puedas revisarlo?"
	textSaveToPanel    = "Guardar en mi Panel"
	textCancel         = "Cancelar"
	textPreRegister    = "¡Genial, %s! Tu precio estimado es de %s. Haz clic en 'Aceptar' para guardar tu presupuesto y que un montador te contacte."
	textAcceptContinue = "Aceptar y Continuar"

	textAskEmail     = "¡Genial, %s! Tu precio estimado es de %s. Para guardar tu presupuesto y crear tu cuenta gratuita, ¿cuál es tu email?"
	textEmailInvalid = "Por favor, introduce un formato de email válido."
	textEmailExists  = "¡Hola de nuevo, %s! Vemos que ya tienes una cuenta. Por favor, introduce tu contraseña para guardar este presupuesto en tu perfil."
	textAskPassword  = "Entendido. Ahora, crea una contraseña segura para tu cuenta."

	textCheckingEmail      = "Comprobando tu email..."
	textPublishing         = "Creando tu cuenta y guardando cotización..."
	textPublishingLite     = "Guardando tu cotización..."
	textPublishSuccess     = "¡Cuenta creada! Te redirigimos a tu panel..."
	textPublishSuccessLite = "¡Cotización guardada! Vamos a tu panel."
	textPublishError       = "Hubo un error: %s. Por favor, inténtalo de nuevo."

	textAnchoringLabel = "Anclaje a pared"
)
