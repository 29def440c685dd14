package i18n

// Language represents a supported language.
type Language string

const (
	// Spanish is the Spanish language.
	Spanish Language = "es"
	// English is the English language.
	English Language = "en"
)

// DefaultLanguage is the fallback language.
const DefaultLanguage = Spanish

// translations maps language codes to translation keys and their values. Values with verbs are formatted with
// fmt.Sprintf by the tf template function.
var translations = map[Language]map[string]string{ //nolint:gochecknoglobals // static lookup table.
	Spanish: {
		"app.title":             "Coach 21K",
		"nav.label":             "Navegación principal",
		"nav.dashboard":         "Panel",
		"nav.plan":              "Mi plan",
		"nav.new_plan":          "Crear plan",
		"language.picker.label": "Idioma",
		"language.name.es":      "Español",
		"language.name.en":      "English",

		"home.tagline":      "Tu entrenador para preparar la próxima carrera.",
		"home.signin":       "Iniciar sesión",
		"home.register":     "Registrarse",
		"home.greeting":     "¡Hola, %s!",
		"home.welcome_back": "Bienvenido de nuevo. Pulsa abajo para acceder a tu plan.",
		"home.dashboard":    "Ir al panel",
		"home.logout":       "Cerrar sesión",
		"home.logged_out":   "Has cerrado sesión.",

		"form.username":         "Usuario",
		"form.email":            "Correo electrónico",
		"form.password":         "Contraseña",
		"form.confirm_password": "Confirmar contraseña",

		"login.title":         "Iniciar sesión",
		"login.submit":        "Entrar",
		"login.to_register":   "¿No tienes cuenta? Regístrate",
		"login.error":         "Error al iniciar sesión",
		"login.error.missing": "Introduce usuario y contraseña.",
		"login.success":       "Login correcto ✅",

		"register.title":          "Registro",
		"register.submit":         "Registrar",
		"register.to_login":       "¿Ya tienes cuenta? Inicia sesión",
		"register.error":          "Error en el registro",
		"register.error.missing":  "Rellena usuario, correo y contraseña.",
		"register.error.mismatch": "Las contraseñas no coinciden",
		"register.success":        "Registro correcto. Ya puedes iniciar sesión.",

		"dashboard.title":      "Página principal",
		"dashboard.welcome":    "Bienvenido %s",
		"dashboard.error.home": "Error al obtener datos del servidor",
		"dashboard.error.next": "Error obteniendo próximo entrenamiento",
		"dashboard.next":       "Próximo entrenamiento",
		"dashboard.next.none":  "No se ha encontrado el próximo entrenamiento.",
		"dashboard.details":    "Ver detalles",

		"wizard.title":                          "Nuevo plan de entrenamiento",
		"wizard.progress":                       "Paso %d de %d",
		"wizard.question.race_type":             "¿Qué carrera quieres preparar?",
		"wizard.question.level":                 "¿Cuál es tu nivel?",
		"wizard.question.days_per_week":         "¿Cuántos días a la semana entrenas?",
		"wizard.question.race_date":             "¿Qué día es la carrera?",
		"wizard.question.preferred_longrun_day": "¿Qué día prefieres para el long run? (opcional)",
		"wizard.question.target_time":           "¿Tienes un tiempo objetivo? (opcional)",
		"wizard.question.recent_5k":             "¿Tu mejor 5k reciente? (opcional)",
		"wizard.question.summary":               "Resumen y generar plan",
		"wizard.summary.race_type":              "Carrera",
		"wizard.summary.level":                  "Nivel",
		"wizard.summary.days_per_week":          "Días por semana",
		"wizard.summary.race_date":              "Fecha de la carrera",
		"wizard.summary.preferred_longrun_day":  "Día del long run",
		"wizard.summary.target_time":            "Tiempo objetivo",
		"wizard.summary.recent_5k":              "Mejor 5k reciente",
		"wizard.summary.none":                   "—",
		"wizard.race_type.5k":                   "5 km",
		"wizard.race_type.10k":                  "10 km",
		"wizard.race_type.21k":                  "Media Maratón (21 km)",
		"wizard.race_type.42k":                  "Maratón (42 km)",
		"wizard.level.principiante":             "Principiante",
		"wizard.level.intermedio":               "Intermedio",
		"wizard.level.avanzado":                 "Avanzado",
		"wizard.longrun.none":                   "Sin preferencia",
		"wizard.choose":                         "Elige una opción",
		"wizard.countdown":                      "Faltan %d días (%d semanas).",
		"wizard.time.placeholder":               "hh:mm:ss",
		"wizard.time.hint":                      "Minutos (45), mm:ss (24:30) o hh:mm:ss (1:45:00).",
		"wizard.prev":                           "Anterior",
		"wizard.next":                           "Siguiente",
		"wizard.generate":                       "Generar plan",
		"wizard.generate.hint":                  "La generación puede tardar hasta dos minutos.",

		"wizard.error.race_type":             "Selecciona el tipo de carrera.",
		"wizard.error.level":                 "Selecciona tu nivel.",
		"wizard.error.days_per_week":         "Selecciona días por semana.",
		"wizard.error.race_date.missing":     "Selecciona una fecha de carrera.",
		"wizard.error.race_date.invalid":     "Fecha inválida.",
		"wizard.error.race_date.past":        "La fecha debe ser futura.",
		"wizard.error.race_date.too_soon":    "Necesitas al menos 1 semana hasta la carrera.",
		"wizard.error.race_date.too_far":     "No se puede generar un plan de más de 26 semanas.",
		"wizard.error.preferred_longrun_day": "Selecciona un día de la semana.",
		"wizard.error.target_time":           "Tiempo objetivo inválido.",
		"wizard.error.recent_5k":             "Formato 5k inválido.",

		"generating.title":            "Generando tu plan",
		"generating.pending":          "Tienes un plan pendiente de generar.",
		"generating.retry":            "Reintentar",
		"generating.wait":             "Generando tu plan... esto puede tardar unos segundos",
		"generating.no_data":          "No hay datos para generar el plan. Vuelve al wizard.",
		"generating.back":             "Volver al formulario",
		"generating.error":            "Error generando el plan",
		"generating.error.unexpected": "Respuesta inesperada del servidor",
		"generating.success":          "✔ Plan generado correctamente",

		"plan.title":          "Mi plan",
		"plan.progress":       "%d de %d entrenamientos completados",
		"plan.export":         "Exportar calendario",
		"plan.cached":         "Sin conexión con el servidor. Mostrando el plan guardado el %s.",
		"plan.error.load":     "No se pudo cargar el plan.",
		"plan.empty":          "Todavía no tienes un plan.",
		"plan.all_done":       "¡Has completado todos los entrenamientos del plan!",
		"plan.month_nav":      "Meses del plan",
		"plan.prev_month":     "‹ Anterior",
		"plan.next_month":     "Siguiente ›",
		"plan.mark_done":      "Marcar completado",
		"plan.done":           "Entrenamiento completado.",
		"plan.no_workout_on":  "No hay entrenamientos el %s.",
		"plan.pick_day":       "Elige un día marcado para ver el entrenamiento.",
		"sync.warning":        "No se pudo sincronizar con el servidor. Guardado localmente.",
		"ics.name":            "Coach 21K",
		"ics.default_summary": "Entrenamiento",

		"workout.detail_title":     "Detalle del entrenamiento",
		"workout.default_type":     "Entreno",
		"workout.back":             "Volver",
		"workout.week":             "Semana %s",
		"workout.distance":         "Distancia",
		"workout.pace":             "Ritmo",
		"workout.target_pace":      "Ritmo objetivo",
		"workout.intensity":        "Intensidad",
		"workout.estimated_time":   "Tiempo estimado",
		"workout.instructions":     "Instrucciones",
		"workout.no_details":       "Sin detalles",
		"workout.segments":         "Segmentos",
		"workout.segment.type":     "Tipo",
		"workout.segment.reps":     "Reps",
		"workout.segment.amount":   "Distancia / Tiempo",
		"workout.advice":           "Consejo",
		"workout.advice_title":     "Consejos",
		"workout.no_advice":        "Sin consejos",
		"workout.status.completed": "Completado",
		"workout.status.pending":   "Pendiente",
		"workout.mark_completed":   "Marcar como completado",
		"workout.mark_pending":     "Marcar como no realizado",
		"workout.download":         "Descargar JSON",
		"workout.flash.completed":  "Entrenamiento marcado como completado.",
		"workout.flash.pending":    "Entrenamiento marcado como no realizado.",

		"error.title":    "Algo ha ido mal",
		"error.body":     "Se ha producido un error inesperado. Inténtalo de nuevo más tarde.",
		"error.home":     "Volver al inicio",
		"notfound.title": "Página no encontrada",
		"notfound.body":  "La página que buscas no existe.",

		"weekday.monday":          "Lunes",
		"weekday.tuesday":         "Martes",
		"weekday.wednesday":       "Miércoles",
		"weekday.thursday":        "Jueves",
		"weekday.friday":          "Viernes",
		"weekday.saturday":        "Sábado",
		"weekday.sunday":          "Domingo",
		"weekday.short.monday":    "L",
		"weekday.short.tuesday":   "M",
		"weekday.short.wednesday": "X",
		"weekday.short.thursday":  "J",
		"weekday.short.friday":    "V",
		"weekday.short.saturday":  "S",
		"weekday.short.sunday":    "D",

		"month.1":  "Enero",
		"month.2":  "Febrero",
		"month.3":  "Marzo",
		"month.4":  "Abril",
		"month.5":  "Mayo",
		"month.6":  "Junio",
		"month.7":  "Julio",
		"month.8":  "Agosto",
		"month.9":  "Septiembre",
		"month.10": "Octubre",
		"month.11": "Noviembre",
		"month.12": "Diciembre",
	},
	English: {
		"nav.label":             "Main navigation",
		"nav.dashboard":         "Dashboard",
		"nav.plan":              "My plan",
		"nav.new_plan":          "New plan",
		"language.picker.label": "Language",

		"home.tagline":      "Your coach for the next race.",
		"home.signin":       "Sign in",
		"home.register":     "Register",
		"home.greeting":     "Hi, %s!",
		"home.welcome_back": "Welcome back. Continue below to open your plan.",
		"home.dashboard":    "Go to dashboard",
		"home.logout":       "Sign out",
		"home.logged_out":   "You have signed out.",

		"form.username":         "Username",
		"form.email":            "Email",
		"form.password":         "Password",
		"form.confirm_password": "Confirm password",

		"login.title":         "Sign in",
		"login.submit":        "Sign in",
		"login.to_register":   "No account yet? Register",
		"login.error":         "Sign in failed",
		"login.error.missing": "Enter your username and password.",
		"login.success":       "Signed in ✅",

		"register.title":          "Register",
		"register.submit":         "Register",
		"register.to_login":       "Already registered? Sign in",
		"register.error":          "Registration failed",
		"register.error.missing":  "Fill in username, email and password.",
		"register.error.mismatch": "Passwords do not match",
		"register.success":        "Registered. You can sign in now.",

		"dashboard.title":      "Dashboard",
		"dashboard.welcome":    "Welcome %s",
		"dashboard.error.home": "Could not load data from the server",
		"dashboard.error.next": "Could not load the next workout",
		"dashboard.next":       "Next workout",
		"dashboard.next.none":  "No upcoming workout found.",
		"dashboard.details":    "Details",

		"wizard.title":                          "New training plan",
		"wizard.progress":                       "Step %d of %d",
		"wizard.question.race_type":             "Which race are you training for?",
		"wizard.question.level":                 "What is your level?",
		"wizard.question.days_per_week":         "How many days a week do you train?",
		"wizard.question.race_date":             "When is the race?",
		"wizard.question.preferred_longrun_day": "Preferred long run day? (optional)",
		"wizard.question.target_time":           "Do you have a target time? (optional)",
		"wizard.question.recent_5k":             "Your best recent 5k? (optional)",
		"wizard.question.summary":               "Summary and plan generation",
		"wizard.summary.race_type":              "Race",
		"wizard.summary.level":                  "Level",
		"wizard.summary.days_per_week":          "Days per week",
		"wizard.summary.race_date":              "Race date",
		"wizard.summary.preferred_longrun_day":  "Long run day",
		"wizard.summary.target_time":            "Target time",
		"wizard.summary.recent_5k":              "Best recent 5k",
		"wizard.race_type.21k":                  "Half marathon (21 km)",
		"wizard.race_type.42k":                  "Marathon (42 km)",
		"wizard.level.principiante":             "Beginner",
		"wizard.level.intermedio":               "Intermediate",
		"wizard.level.avanzado":                 "Advanced",
		"wizard.longrun.none":                   "No preference",
		"wizard.choose":                         "Choose an option",
		"wizard.countdown":                      "%d days (%d weeks) to go.",
		"wizard.time.hint":                      "Minutes (45), mm:ss (24:30) or hh:mm:ss (1:45:00).",
		"wizard.prev":                           "Back",
		"wizard.next":                           "Next",
		"wizard.generate":                       "Generate plan",
		"wizard.generate.hint":                  "Generation can take up to two minutes.",

		"wizard.error.race_type":             "Choose the race type.",
		"wizard.error.level":                 "Choose your level.",
		"wizard.error.days_per_week":         "Choose the days per week.",
		"wizard.error.race_date.missing":     "Choose a race date.",
		"wizard.error.race_date.invalid":     "Invalid date.",
		"wizard.error.race_date.past":        "The date must be in the future.",
		"wizard.error.race_date.too_soon":    "You need at least 1 week until the race.",
		"wizard.error.race_date.too_far":     "Plans cannot be longer than 26 weeks.",
		"wizard.error.preferred_longrun_day": "Choose a weekday.",
		"wizard.error.target_time":           "Invalid target time.",
		"wizard.error.recent_5k":             "Invalid 5k time.",

		"generating.title":            "Generating your plan",
		"generating.pending":          "You have a plan waiting to be generated.",
		"generating.retry":            "Retry",
		"generating.wait":             "Generating your plan... this can take a few seconds",
		"generating.no_data":          "There is nothing to generate. Go back to the questionnaire.",
		"generating.back":             "Back to the questionnaire",
		"generating.error":            "Plan generation failed",
		"generating.error.unexpected": "Unexpected response from the server",
		"generating.success":          "✔ Plan generated",

		"plan.title":          "My plan",
		"plan.progress":       "%d of %d workouts completed",
		"plan.export":         "Export calendar",
		"plan.cached":         "The server is unreachable. Showing the plan saved on %s.",
		"plan.error.load":     "Could not load the plan.",
		"plan.empty":          "You do not have a plan yet.",
		"plan.all_done":       "You have completed every workout of the plan!",
		"plan.month_nav":      "Plan months",
		"plan.prev_month":     "‹ Previous",
		"plan.next_month":     "Next ›",
		"plan.mark_done":      "Mark done",
		"plan.done":           "Workout completed.",
		"plan.no_workout_on":  "No workouts on %s.",
		"plan.pick_day":       "Pick a highlighted day to see its workout.",
		"sync.warning":        "Could not sync with the server. Saved locally.",
		"ics.default_summary": "Workout",

		"workout.detail_title":     "Workout details",
		"workout.default_type":     "Workout",
		"workout.back":             "Back",
		"workout.week":             "Week %s",
		"workout.distance":         "Distance",
		"workout.pace":             "Pace",
		"workout.target_pace":      "Target pace",
		"workout.intensity":        "Intensity",
		"workout.estimated_time":   "Estimated time",
		"workout.instructions":     "Instructions",
		"workout.no_details":       "No details",
		"workout.segments":         "Segments",
		"workout.segment.type":     "Type",
		"workout.segment.amount":   "Distance / Time",
		"workout.advice":           "Advice",
		"workout.advice_title":     "Advice",
		"workout.no_advice":        "No advice",
		"workout.status.completed": "Completed",
		"workout.status.pending":   "Pending",
		"workout.mark_completed":   "Mark as completed",
		"workout.mark_pending":     "Mark as not done",
		"workout.download":         "Download JSON",
		"workout.flash.completed":  "Workout marked as completed.",
		"workout.flash.pending":    "Workout marked as not done.",

		"error.title":    "Something went wrong",
		"error.body":     "An unexpected error occurred. Please try again later.",
		"error.home":     "Back to home",
		"notfound.title": "Page not found",
		"notfound.body":  "The page you are looking for does not exist.",

		"weekday.monday":          "Monday",
		"weekday.tuesday":         "Tuesday",
		"weekday.wednesday":       "Wednesday",
		"weekday.thursday":        "Thursday",
		"weekday.friday":          "Friday",
		"weekday.saturday":        "Saturday",
		"weekday.sunday":          "Sunday",
		"weekday.short.monday":    "Mo",
		"weekday.short.tuesday":   "Tu",
		"weekday.short.wednesday": "We",
		"weekday.short.thursday":  "Th",
		"weekday.short.friday":    "Fr",
		"weekday.short.saturday":  "Sa",
		"weekday.short.sunday":    "Su",

		"month.1":  "January",
		"month.2":  "February",
		"month.3":  "March",
		"month.4":  "April",
		"month.5":  "May",
		"month.6":  "June",
		"month.7":  "July",
		"month.8":  "August",
		"month.9":  "September",
		"month.10": "October",
		"month.11": "November",
		"month.12": "December",
	},
}

// SupportedLanguages returns a list of all supported languages.
func SupportedLanguages() []Language {
	return []Language{Spanish, English}
}

// IsSupported checks if a language is supported.
func IsSupported(lang Language) bool {
	_, ok := translations[lang]
	return ok
}

// Translate returns the translation for the given key in the specified language.
// If the key is not found, it falls back to the default language.
// If still not found, it returns the key itself.
func Translate(lang Language, key string) string {
	// Try the requested language.
	if langTranslations, ok := translations[lang]; ok {
		if translation, ok := langTranslations[key]; ok {
			return translation
		}
	}

	// Fallback to default language.
	if lang != DefaultLanguage {
		if langTranslations, ok := translations[DefaultLanguage]; ok {
			if translation, ok := langTranslations[key]; ok {
				return translation
			}
		}
	}

	// Return the key itself if no translation found.
	return key
}
